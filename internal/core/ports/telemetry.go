package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan announces the rules a build is about to visit.
	EmitPlan(ctx context.Context, plan BuildPlan)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Attributes are set on the span when it starts.
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute on the span as it starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Span attributes the engine sets on a rule span and renderers read back.
const (
	// OutcomeAttribute carries the rule's success kind or failure status.
	OutcomeAttribute = "kiln.outcome"
	// CacheSourceAttribute names the cache tier that served an artifact.
	CacheSourceAttribute = "kiln.cache.source"
	// RuleTypeAttribute is the rule's description type.
	RuleTypeAttribute = "kiln.rule_type"
)
