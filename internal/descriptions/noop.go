package descriptions

import "go.trai.ch/kiln/internal/core/domain"

// Noop groups dependencies without producing anything.
type Noop struct{}

// Type returns "noop".
func (Noop) Type() string { return "noop" }

// CreateRule creates the no-op rule.
func (Noop) CreateRule(node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	return domain.NewRule(&domain.RuleSpec{
		Target:  node.Target,
		Type:    node.Type,
		Deps:    deps,
		Outputs: domain.NoOutputs(),
	})
}
