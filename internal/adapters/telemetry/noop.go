package telemetry

import (
	"context"

	"go.trai.ch/kiln/internal/core/ports"
)

var (
	_ ports.Tracer = NoOpTracer{}
	_ ports.Span   = NoOpSpan{}
)

// NoOpTracer discards spans and plans. Engines built without a renderer use it.
type NoOpTracer struct{}

// NewNoOpTracer returns a NoOpTracer.
func NewNoOpTracer() NoOpTracer { return NoOpTracer{} }

// Start returns ctx unchanged with a span that discards everything.
func (NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, NoOpSpan{}
}

// EmitPlan does nothing.
func (NoOpTracer) EmitPlan(context.Context, ports.BuildPlan) {}

// NoOpSpan is a span that discards output and attributes.
type NoOpSpan struct{}

func (NoOpSpan) End()                        {}
func (NoOpSpan) RecordError(error)           {}
func (NoOpSpan) SetAttribute(string, any)    {}
func (NoOpSpan) Write(p []byte) (int, error) { return len(p), nil }
