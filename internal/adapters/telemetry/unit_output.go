// Package telemetry connects OpenTelemetry spans to the build renderer.
package telemetry

import (
	"errors"
	"sync"
	"time"

	"go.trai.ch/pinbuild/internal/core/ports"
)

const (
	// DefaultOutputLimit is how much compiler output of one unit is held
	// before it is handed to the renderer.
	DefaultOutputLimit = 4096
	// DefaultOutputDelay is the longest compiler output is held.
	DefaultOutputDelay = 50 * time.Millisecond
)

var errOutputClosed = errors.New("unit output is closed")

// UnitOutput collects the compiler output of one unit and forwards it to the
// renderer under the unit's span ID. cargo writes in many small chunks; they
// are passed on once limit bytes have accumulated or delay after the first
// chunk that is still held, whichever comes first. No timer runs while
// nothing is held, so cached units that never write cost nothing.
type UnitOutput struct {
	renderer ports.Renderer
	spanID   string
	limit    int
	delay    time.Duration

	mu     sync.Mutex
	held   []byte
	timer  *time.Timer
	closed bool
}

// NewUnitOutput returns the output sink of the unit span spanID. Non-positive
// limit and delay select the defaults.
func NewUnitOutput(renderer ports.Renderer, spanID string, limit int, delay time.Duration) *UnitOutput {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	if delay <= 0 {
		delay = DefaultOutputDelay
	}
	return &UnitOutput{renderer: renderer, spanID: spanID, limit: limit, delay: delay}
}

// Write holds p for the renderer.
func (o *UnitOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, errOutputClosed
	}

	o.held = append(o.held, p...)
	switch {
	case len(o.held) >= o.limit:
		o.forwardLocked()
	case o.timer == nil:
		o.timer = time.AfterFunc(o.delay, o.due)
	}
	return len(p), nil
}

// Close forwards what is still held. The unit's span ends right after, so
// later writes are rejected.
func (o *UnitOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.forwardLocked()
	o.closed = true
	return nil
}

func (o *UnitOutput) due() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.forwardLocked()
	}
}

// forwardLocked must be called with mu held, which also keeps the chunks of
// one unit in order.
func (o *UnitOutput) forwardLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.held) == 0 {
		return
	}
	data := o.held
	o.held = nil
	o.renderer.OnUnitLog(o.spanID, data)
}
