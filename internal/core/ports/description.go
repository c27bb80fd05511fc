package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Description turns target nodes of one type into rules.
//
//go:generate mockgen -source=description.go -destination=mocks/mock_description.go -package=mocks
type Description interface {
	// Type returns the node type tag the description handles.
	Type() string

	// CreateRule creates the rule of node. deps holds the rules of node.Deps in order.
	CreateRule(node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error)
}

// Transformer dispatches target nodes to their description.
type Transformer interface {
	// Transform creates the rule of node from its already created dependency rules.
	// It must not depend on anything but its arguments.
	Transform(ctx context.Context, node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error)

	// Version identifies the set of descriptions. Action graphs built by transformers
	// with different versions are never shared.
	Version() string
}
