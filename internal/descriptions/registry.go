// Package descriptions turns target nodes into rules by dispatching on their type tag.
package descriptions

import (
	"context"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// registryVersion changes whenever a built-in description changes the rules it creates.
const registryVersion = "kiln.descriptions.v1"

// Registry maps node type tags to descriptions. It implements ports.Transformer.
type Registry struct {
	descriptions map[string]ports.Description
	version      string
}

// NewRegistry creates a registry of the given descriptions.
func NewRegistry(ds ...ports.Description) (*Registry, error) {
	r := &Registry{descriptions: make(map[string]ports.Description, len(ds))}
	for _, d := range ds {
		if _, exists := r.descriptions[d.Type()]; exists {
			return nil, zerr.With(domain.ErrDuplicateRuleType, "type", d.Type())
		}
		r.descriptions[d.Type()] = d
	}
	r.version = registryVersion + ":" + strings.Join(r.Types(), ",")
	return r, nil
}

// Builtin returns a registry of the built-in rule types.
func Builtin() *Registry {
	r, err := NewRegistry(Genrule{}, ExportFile{}, Filegroup{}, Noop{})
	if err != nil {
		panic(err)
	}
	return r
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.descriptions))
}

// Version identifies the registered descriptions.
func (r *Registry) Version() string {
	return r.version
}

// Transform creates the rule of node with the description registered for its type.
func (r *Registry) Transform(_ context.Context, node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	d, ok := r.descriptions[node.Type]
	if !ok {
		return nil, zerr.With(zerr.With(domain.ErrUnknownRuleType, "type", node.Type), "target", node.Target.String())
	}
	return d.CreateRule(node, deps)
}
