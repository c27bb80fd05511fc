package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/ports"
)

// DefaultWindow is the quiet period after which changes are delivered.
const DefaultWindow = 200 * time.Millisecond

// Run starts w on root and calls fn with each debounced batch of changed paths, relative
// to root and slash separated. Batches are delivered one at a time; changes made while fn
// runs form the next batch. Run returns when ctx ends.
func Run(ctx context.Context, w ports.Watcher, root string, window time.Duration, fn func(context.Context, []string)) error {
	if err := w.Start(ctx, root); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	var (
		mu     sync.Mutex
		queued []string
		ready  = make(chan struct{}, 1)
	)
	deb := NewDebouncer(window, func(paths []string) {
		mu.Lock()
		queued = append(queued, paths...)
		mu.Unlock()
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	go func() {
		for ev := range w.Events() {
			if rel, ok := relevant(root, ev.Path); ok {
				deb.Add(rel)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ready:
			mu.Lock()
			slices.Sort(queued)
			paths := slices.Compact(queued)
			queued = nil
			mu.Unlock()
			if len(paths) > 0 {
				fn(ctx, paths)
			}
		}
	}
}

// relevant returns the root-relative form of path unless it is root itself, lies outside
// root or sits in a skipped directory.
func relevant(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for part := range strings.SplitSeq(rel, "/") {
		if skippedDirectories[part] {
			return "", false
		}
	}
	return rel, true
}
