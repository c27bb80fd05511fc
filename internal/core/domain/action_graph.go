package domain

import (
	"iter"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// ActionGraph is the set of rules created for a build, with a fixed topological order.
type ActionGraph struct {
	rules map[BuildTarget]*Rule
	order []*Rule
}

// NewActionGraph indexes rules and everything they transitively depend on.
func NewActionGraph(rules []*Rule) *ActionGraph {
	g := &ActionGraph{rules: make(map[BuildTarget]*Rule)}
	var visit func(r *Rule)
	visit = func(r *Rule) {
		if _, seen := g.rules[r.target]; seen {
			return
		}
		g.rules[r.target] = r
		for _, d := range r.deps {
			visit(d)
		}
		g.order = append(g.order, r)
	}
	roots := slices.Clone(rules)
	slices.SortFunc(roots, func(a, b *Rule) int { return CompareTargets(a.target, b.target) })
	for _, r := range roots {
		visit(r)
	}
	return g
}

// Rule returns the rule for t.
func (g *ActionGraph) Rule(t BuildTarget) (*Rule, bool) {
	r, ok := g.rules[t]
	return r, ok
}

// Len returns the number of rules.
func (g *ActionGraph) Len() int {
	return len(g.rules)
}

// Targets returns every target in the graph, sorted.
func (g *ActionGraph) Targets() []BuildTarget {
	return SortTargets(slices.Collect(maps.Keys(g.rules)))
}

// Rules yields rules with dependencies ahead of dependents.
func (g *ActionGraph) Rules() iter.Seq[*Rule] {
	return slices.Values(g.order)
}

// Closure returns the rules needed to build targets, in topological order.
func (g *ActionGraph) Closure(targets []BuildTarget) ([]*Rule, error) {
	needed := make(map[BuildTarget]bool)
	var mark func(r *Rule)
	mark = func(r *Rule) {
		if needed[r.target] {
			return
		}
		needed[r.target] = true
		for _, d := range r.deps {
			mark(d)
		}
	}
	for _, t := range targets {
		r, ok := g.rules[t]
		if !ok {
			return nil, zerr.With(ErrTargetNotFound, "target", t.String())
		}
		mark(r)
	}
	out := make([]*Rule, 0, len(needed))
	for _, r := range g.order {
		if needed[r.target] {
			out = append(out, r)
		}
	}
	return out, nil
}
