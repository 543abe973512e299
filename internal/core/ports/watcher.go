package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change behind a WatchEvent.
type WatchOp uint8

// Changes reported by a Watcher. Chmod-only events are not reported.
const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)

// WatchEvent is a change to a path below the watched workspace root.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher observes the workspace sources for `build --watch`.
type Watcher interface {
	// Start watches root and every directory below it, including directories
	// created later.
	Start(ctx context.Context, root string) error
	Stop() error
	// Events yields changes until the watcher is stopped.
	Events() iter.Seq[WatchEvent]
}
