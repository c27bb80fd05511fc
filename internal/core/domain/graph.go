// Package domain contains the core domain models of the build engine: targets, the target
// graph, rules, rule keys and build results.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"iter"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// TargetGraph is an immutable, acyclic graph of target nodes. Acyclicity and
// dependency presence are checked when the graph is created.
type TargetGraph struct {
	nodes       map[BuildTarget]*TargetNode
	order       []BuildTarget
	dependents  map[BuildTarget][]BuildTarget
	fingerprint string
}

// NewTargetGraph validates nodes and fixes a deterministic topological order.
func NewTargetGraph(nodes []*TargetNode) (*TargetGraph, error) {
	g := &TargetGraph{
		nodes:      make(map[BuildTarget]*TargetNode, len(nodes)),
		dependents: make(map[BuildTarget][]BuildTarget),
	}
	for _, n := range nodes {
		if _, exists := g.nodes[n.Target]; exists {
			return nil, zerr.With(ErrTargetAlreadyExists, "target", n.Target.String())
		}
		g.nodes[n.Target] = n
	}
	for _, n := range nodes {
		for _, dep := range n.Deps {
			if _, ok := g.nodes[dep]; !ok {
				err := zerr.With(ErrMissingDependency, "target", n.Target.String())
				return nil, zerr.With(err, "dependency", dep.String())
			}
			g.dependents[dep] = append(g.dependents[dep], n.Target)
		}
	}
	for dep := range g.dependents {
		g.dependents[dep] = SortTargets(g.dependents[dep])
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	fp, err := g.computeFingerprint()
	if err != nil {
		return nil, err
	}
	g.fingerprint = fp
	return g, nil
}

// validate checks for cycles using a depth first topological sort over sorted roots,
// which populates order with dependencies ahead of dependents.
func (g *TargetGraph) validate() error {
	g.order = make([]BuildTarget, 0, len(g.nodes))
	visited := make(map[BuildTarget]int, len(g.nodes)) // 0: unvisited, 1: visiting, 2: visited
	var path []BuildTarget

	var visit func(u BuildTarget) error
	visit = func(u BuildTarget) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range g.nodes[u].Deps {
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.order = append(g.order, u)
		return nil
	}

	roots := SortTargets(slices.Collect(maps.Keys(g.nodes)))
	for _, t := range roots {
		if visited[t] == 0 {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildCycleError(path []BuildTarget, dep BuildTarget) error {
	startIdx := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-startIdx+1)
	for _, t := range path[startIdx:] {
		parts = append(parts, t.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

type fingerprintEntry struct {
	Target string         `json:"target"`
	Type   string         `json:"type"`
	Deps   []string       `json:"deps"`
	Args   map[string]any `json:"args"`
}

func (g *TargetGraph) computeFingerprint() (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, t := range g.order {
		n := g.nodes[t]
		deps := make([]string, len(n.Deps))
		for i, d := range n.Deps {
			deps[i] = d.String()
		}
		if err := enc.Encode(fingerprintEntry{Target: t.String(), Type: n.Type, Deps: deps, Args: n.Args}); err != nil {
			return "", zerr.With(zerr.Wrap(err, ErrUnsupportedArgument.Error()), "target", t.String())
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Node returns the node for t.
func (g *TargetGraph) Node(t BuildTarget) (*TargetNode, bool) {
	n, ok := g.nodes[t]
	return n, ok
}

// Len returns the number of nodes in the graph.
func (g *TargetGraph) Len() int {
	return len(g.nodes)
}

// Fingerprint returns a digest of every node's identity, type, arguments and dependencies.
// Graphs with equal fingerprints transform into equal action graphs.
func (g *TargetGraph) Fingerprint() string {
	return g.fingerprint
}

// Targets returns every target in the graph, sorted.
func (g *TargetGraph) Targets() []BuildTarget {
	return SortTargets(slices.Collect(maps.Keys(g.nodes)))
}

// Dependents returns the sorted targets that depend directly on t.
func (g *TargetGraph) Dependents(t BuildTarget) []BuildTarget {
	return g.dependents[t]
}

// Walk returns an iterator that yields nodes with dependencies ahead of dependents.
func (g *TargetGraph) Walk() iter.Seq[*TargetNode] {
	return func(yield func(*TargetNode) bool) {
		for _, t := range g.order {
			if !yield(g.nodes[t]) {
				return
			}
		}
	}
}

// Closure returns the transitive closure of targets in topological order.
func (g *TargetGraph) Closure(targets []BuildTarget) ([]*TargetNode, error) {
	needed := make(map[BuildTarget]bool)
	var mark func(t BuildTarget)
	mark = func(t BuildTarget) {
		if needed[t] {
			return
		}
		needed[t] = true
		for _, dep := range g.nodes[t].Deps {
			mark(dep)
		}
	}
	for _, t := range targets {
		if _, ok := g.nodes[t]; !ok {
			return nil, zerr.With(ErrTargetNotFound, "target", t.String())
		}
		mark(t)
	}

	out := make([]*TargetNode, 0, len(needed))
	for _, t := range g.order {
		if needed[t] {
			out = append(out, g.nodes[t])
		}
	}
	return out, nil
}
