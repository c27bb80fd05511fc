package telemetry_test

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/ports"
)

type startEvent struct {
	spanID, parentID, target string
}

// eventRecorder is a ports.Renderer that keeps every event it receives.
type eventRecorder struct {
	mu       sync.Mutex
	plans    []ports.BuildPlan
	starts   []startEvent
	output   map[string][]byte
	outcomes []ports.RuleOutcome
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{output: make(map[string][]byte)}
}

func (r *eventRecorder) Start(context.Context) error { return nil }
func (r *eventRecorder) Stop() error                 { return nil }
func (r *eventRecorder) Wait() error                 { return nil }

func (r *eventRecorder) OnPlan(plan ports.BuildPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, plan)
}

func (r *eventRecorder) OnRuleStart(spanID, parentID, target string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, startEvent{spanID: spanID, parentID: parentID, target: target})
}

func (r *eventRecorder) OnRuleOutput(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output[spanID] = append(r.output[spanID], data...)
}

func (r *eventRecorder) OnRuleDone(_ string, _ time.Time, outcome ports.RuleOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}
