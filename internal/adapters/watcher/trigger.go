package watcher

import (
	"slices"
	"sync"
	"time"
	"unique"
)

// DefaultQuietPeriod is how long the tree must stay unchanged before a
// rebuild is triggered.
const DefaultQuietPeriod = 200 * time.Millisecond

// Trigger decides when watch mode rebuilds. Changed paths accumulate until
// the tree has been quiet for the quiet period, then Ready fires. Paths that
// change while a rebuild runs are kept for the next one, so no change is
// lost between rebuilds.
type Trigger struct {
	quiet time.Duration
	ready chan struct{}

	mu      sync.Mutex
	changed map[unique.Handle[string]]struct{}
	timer   *time.Timer
}

// NewTrigger returns a trigger with the given quiet period.
func NewTrigger(quiet time.Duration) *Trigger {
	return &Trigger{
		quiet:   quiet,
		ready:   make(chan struct{}, 1),
		changed: make(map[unique.Handle[string]]struct{}),
	}
}

// Add records a changed path and restarts the quiet period.
func (t *Trigger) Add(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.changed[unique.Make(path)] = struct{}{}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.quiet, t.signal)
}

func (t *Trigger) signal() {
	select {
	case t.ready <- struct{}{}:
	default:
		// A rebuild is already pending; it will take these paths too.
	}
}

// Ready fires once the tree has settled after a change.
func (t *Trigger) Ready() <-chan struct{} {
	return t.ready
}

// Take returns the sorted paths changed since the last Take and forgets
// them.
func (t *Trigger) Take() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	paths := make([]string, 0, len(t.changed))
	for handle := range t.changed {
		paths = append(paths, handle.Value())
	}
	clear(t.changed)
	slices.Sort(paths)
	return paths
}

// Stop cancels a pending quiet period.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
