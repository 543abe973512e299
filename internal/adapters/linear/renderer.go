// Package linear provides a synchronous, line-buffered build renderer.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/pinbuild/internal/ui/output"
	"go.trai.ch/pinbuild/internal/ui/style"
)

// Renderer implements ports.Renderer with chronological, unit-prefixed lines.
// Compiler output goes to stdout; progress goes to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	units   map[string]*unitState // spanID -> unit
	buffers map[string]*bytes.Buffer
}

type unitState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a new Renderer. Colour follows NO_COLOR.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	return NewRendererWithProfile(stdout, stderr, output.ColorProfileANSI())
}

// NewRendererWithProfile creates a new Renderer using the given colour profile.
func NewRendererWithProfile(stdout, stderr io.Writer, profile termenv.Profile) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  termenv.NewOutput(stderr, termenv.WithProfile(profile)),
		units:   make(map[string]*unitState),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Start is a no-op; the renderer is synchronous.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}
	return nil
}

// OnPlanEmit prints the units about to be compiled.
func (r *Renderer) OnPlanEmit(units []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(units) == 0 {
		_, _ = fmt.Fprintln(r.stderr, "Nothing to compile, every unit is cached")
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "Compiling %d unit(s): %v\n", len(units), units)
}

// OnUnitStart prints a start line for the unit.
func (r *Renderer) OnUnitStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.units[spanID] = &unitState{name: name, startTime: startTime}
	r.buffers[spanID] = new(bytes.Buffer)

	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnUnitLog buffers output and prints every complete line with the unit prefix.
func (r *Renderer) OnUnitLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			// Keep the partial line for the next chunk.
			if len(line) > 0 {
				rest := new(bytes.Buffer)
				rest.Write(line)
				r.buffers[spanID] = rest
			}
			break
		}
		r.printLineLocked(unit.name, line)
	}
}

// OnUnitComplete flushes the unit's output and prints its outcome.
func (r *Renderer) OnUnitComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)

	duration := endTime.Sub(unit.startTime).Round(time.Millisecond)
	prefix := fmt.Sprintf("[%s]", unit.name)

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	} else {
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
	}

	delete(r.units, spanID)
	delete(r.buffers, spanID)
}

// flushBufferLocked must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	unit, ok := r.units[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(unit.name, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
