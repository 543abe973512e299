package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/pinbuild/internal/core/ports"
)

// errUnitFailed stands in for a failed unit whose span carries no status
// description.
var errUnitFailed = errors.New("unit failed")

// unitReporter turns the spans of a build into unit events for the
// renderer. Every span is a unit: the builder opens one per compiled or
// cached unit beneath the span of the whole build, so the span tree is the
// unit tree the renderer draws.
type unitReporter struct {
	renderer ports.Renderer
}

// NewProvider returns a tracer provider whose spans are reported to
// renderer as units. A nil renderer reports nothing.
func NewProvider(renderer ports.Renderer) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&unitReporter{renderer: renderer}))
}

func (r *unitReporter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if r.renderer == nil || !s.SpanContext().IsValid() {
		return
	}

	var parentID string
	if sc := trace.SpanFromContext(parent).SpanContext(); sc.IsValid() {
		parentID = sc.SpanID().String()
	}
	r.renderer.OnUnitStart(s.SpanContext().SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd completes the unit. A span ending with an error status is a failed
// unit, and the status description becomes the reported error.
func (r *unitReporter) OnEnd(s sdktrace.ReadOnlySpan) {
	if r.renderer == nil || !s.SpanContext().IsValid() {
		return
	}
	r.renderer.OnUnitComplete(s.SpanContext().SpanID().String(), s.EndTime(), unitError(s.Status()))
}

func unitError(status sdktrace.Status) error {
	if status.Code != codes.Error {
		return nil
	}
	if status.Description == "" {
		return errUnitFailed
	}
	return errors.New(status.Description)
}

func (r *unitReporter) ForceFlush(context.Context) error { return nil }

func (r *unitReporter) Shutdown(context.Context) error { return nil }
