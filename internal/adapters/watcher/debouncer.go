// Package watcher reports debounced file changes under a workspace root.
package watcher

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// Debouncer coalesces paths added within a quiet window into one sorted batch.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	fire    func(paths []string)
}

// NewDebouncer creates a debouncer that calls fire once the window passes without a new path.
func NewDebouncer(window time.Duration, fire func(paths []string)) *Debouncer {
	return &Debouncer{pending: make(map[string]struct{}), window: window, fire: fire}
}

// Add records path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.expire)
}

// Flush delivers the pending batch now, on the calling goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil && !d.timer.Stop() {
		// The timer fired and expire will deliver the batch.
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()

	if len(paths) > 0 && d.fire != nil {
		d.fire(paths)
	}
}

func (d *Debouncer) expire() {
	d.mu.Lock()
	paths := d.takeLocked()
	d.mu.Unlock()

	if len(paths) > 0 && d.fire != nil {
		d.fire(paths)
	}
}

func (d *Debouncer) takeLocked() []string {
	d.timer = nil
	if len(d.pending) == 0 {
		return nil
	}
	paths := slices.Sorted(maps.Keys(d.pending))
	clear(d.pending)
	return paths
}
