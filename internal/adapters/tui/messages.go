package tui

import (
	"time"

	"go.trai.ch/kiln/internal/core/ports"
)

// MsgPlan replaces the model's rules with a new build plan.
type MsgPlan struct {
	Plan ports.BuildPlan
}

// MsgRuleStarted marks a planned rule as running under a span.
type MsgRuleStarted struct {
	SpanID string
	Target string
	At     time.Time
}

// MsgRuleOutput appends step output to the rule running under SpanID.
type MsgRuleOutput struct {
	SpanID string
	Data   []byte
}

// MsgRuleDone records the outcome of the rule running under SpanID.
type MsgRuleDone struct {
	SpanID  string
	At      time.Time
	Outcome ports.RuleOutcome
}
