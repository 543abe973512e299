package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/pinbuild/internal/core/ports"
)

// OTelTracer implements ports.Tracer using OpenTelemetry. Span output is
// batched and streamed to the attached renderer.
type OTelTracer struct {
	mu       sync.RWMutex
	tracer   trace.Tracer
	renderer ports.Renderer
}

// NewOTelTracer creates a tracer from the global provider.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{tracer: otel.Tracer(name)}
}

// WithProvider switches the tracer to spans of provider.
func (t *OTelTracer) WithProvider(provider trace.TracerProvider, name string) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracer = provider.Tracer(name)
	return t
}

// WithRenderer attaches the renderer span output is streamed to.
func (t *OTelTracer) WithRenderer(renderer ports.Renderer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = renderer
	return t
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	t.mu.RLock()
	tracer, renderer := t.tracer, t.renderer
	t.mu.RUnlock()

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.Bool("pinbuild.cached", cfg.Cached)))

	var output *UnitOutput
	if renderer != nil {
		output = NewUnitOutput(renderer, span.SpanContext().SpanID().String(), 0, 0)
	}

	return ctx, &OTelSpan{span: span, output: output}
}

// EmitPlan records the planned units on the current span and announces them
// to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, units []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(attribute.StringSlice("units", units)))
	}

	t.mu.RLock()
	renderer := t.renderer
	t.mu.RUnlock()

	if renderer != nil {
		renderer.OnPlanEmit(units)
	}
}

// OTelSpan implements ports.Span using OpenTelemetry.
type OTelSpan struct {
	span   trace.Span
	output *UnitOutput
}

// End completes the span. Held output is forwarded first.
func (s *OTelSpan) End() {
	if s.output != nil {
		_ = s.output.Close()
	}
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write streams p to the renderer, or records it as a span event when no
// renderer is attached.
func (s *OTelSpan) Write(p []byte) (int, error) {
	if s.output != nil {
		return s.output.Write(p)
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
