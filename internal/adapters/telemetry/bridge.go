package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge is an sdktrace.SpanProcessor turning the lifecycle of rule spans into
// renderer events. The engine names each span after its rule's target.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge feeding renderer. A nil renderer drops every event.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart reports the span with its parent.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}
	var parentID string
	if p := trace.SpanContextFromContext(parent); p.IsValid() {
		parentID = p.SpanID().String()
	}
	b.renderer.OnRuleStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd reports the outcome recorded in the span attributes.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}
	b.renderer.OnRuleDone(sc.SpanID().String(), endTime(s), outcomeOf(s))
}

// ForceFlush does nothing; events are delivered synchronously.
func (b *Bridge) ForceFlush(context.Context) error { return nil }

// Shutdown does nothing.
func (b *Bridge) Shutdown(context.Context) error { return nil }

func outcomeOf(s sdktrace.ReadOnlySpan) ports.RuleOutcome {
	var out ports.RuleOutcome
	for _, kv := range s.Attributes() {
		switch kv.Key {
		case attribute.Key(ports.OutcomeAttribute):
			out.Result = kv.Value.AsString()
		case attribute.Key(ports.CacheSourceAttribute):
			out.CacheSource = kv.Value.AsString()
		}
	}
	if st := s.Status(); st.Code == codes.Error {
		msg := st.Description
		if msg == "" {
			msg = "rule failed"
		}
		out.Err = errors.New(msg)
	}
	return out
}

// endTime falls back to the start time for spans ended without a timestamp.
func endTime(s sdktrace.ReadOnlySpan) time.Time {
	if t := s.EndTime(); !t.IsZero() {
		return t
	}
	return s.StartTime()
}
