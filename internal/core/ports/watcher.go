package ports

import (
	"context"
	"iter"
)

// ChangeKind says how a watched path changed.
type ChangeKind uint8

const (
	// Modified means the file's contents were written.
	Modified ChangeKind = iota
	// Created means the path appeared.
	Created
	// Removed means the path disappeared, by deletion or by being renamed away.
	Removed
)

// String returns the lowercase kind name.
func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Removed:
		return "removed"
	default:
		return "modified"
	}
}

// WatchEvent is one change below the watched root.
type WatchEvent struct {
	// Path is absolute.
	Path string
	Kind ChangeKind
}

// Watcher reports file changes below a workspace root so that watch mode can
// rebuild the affected targets.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root recursively until ctx ends or Stop is called.
	Start(ctx context.Context, root string) error
	// Stop releases the watcher. Events ends once pending events are drained.
	Stop() error
	// Events yields changes in the order they were observed.
	Events() iter.Seq[WatchEvent]
}
