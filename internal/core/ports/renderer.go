package ports

import (
	"context"
	"time"
)

// BuildPlan describes the rules one build will visit.
type BuildPlan struct {
	// Rules lists every rule of the closure in dependency order.
	Rules []string
	// Deps maps a rule to the rules it depends on.
	Deps map[string][]string
	// Targets are the rules the user asked for.
	Targets []string
}

// RuleOutcome is how a rule's span ended.
type RuleOutcome struct {
	// Result is the success kind or failure status, e.g. BUILT_LOCALLY or FAIL.
	Result string
	// CacheSource names the cache tier an artifact was fetched from, if any.
	CacheSource string
	Err         error
}

// Renderer presents build progress. The linear renderer and the TUI consume the
// same stream of rule events, keyed by span ID.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start begins the renderer's lifecycle. Asynchronous renderers launch their
	// goroutines here.
	Start(ctx context.Context) error
	// Stop flushes buffered output and stops accepting events.
	Stop() error
	// Wait blocks until the renderer has terminated.
	Wait() error

	// OnPlan is called once the action graph is known.
	OnPlan(plan BuildPlan)
	// OnRuleStart is called when the engine starts working on a rule. parentID is
	// empty for top-level spans.
	OnRuleStart(spanID, parentID, target string, at time.Time)
	// OnRuleOutput carries step output. data may hold partial lines.
	OnRuleOutput(spanID string, data []byte)
	// OnRuleDone is called when the rule reached a terminal state.
	OnRuleDone(spanID string, at time.Time, outcome RuleOutcome)
}
