// Package actiongraph transforms target graphs into action graphs of rules.
package actiongraph

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pmezard/go-difflib/difflib"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Options control how the builder walks target graphs.
type Options struct {
	// Parallel walks the graph concurrently.
	Parallel bool
	// Parallelism bounds concurrent transforms. Zero means GOMAXPROCS.
	Parallelism int
	// Check rebuilds cached action graphs serially and fails when they differ.
	Check bool
}

// Builder creates action graphs and keeps the most recent one for reuse.
type Builder struct {
	transformer ports.Transformer
	logger      ports.Logger
	opts        Options

	mu     sync.Mutex
	cached *session
}

// NewBuilder creates a builder.
func NewBuilder(transformer ports.Transformer, logger ports.Logger, opts Options) *Builder {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Builder{transformer: transformer, logger: logger, opts: opts}
}

// Build returns the action graph of targets and their transitive dependencies.
//
// A graph whose fingerprint matches the previous call reuses that call's rules: no node
// is transformed twice for the same graph and transformer version. Overlapping
// concurrent calls share rule instances.
func (b *Builder) Build(ctx context.Context, graph *domain.TargetGraph, targets []domain.BuildTarget) (*domain.ActionGraph, error) {
	fingerprint := graph.Fingerprint() + "|" + b.transformer.Version()

	b.mu.Lock()
	s := b.cached
	hit := s != nil && s.fingerprint == fingerprint
	if !hit {
		s = newSession(graph, fingerprint, b.transformer)
		b.cached = s
	}
	b.mu.Unlock()

	if hit {
		b.logger.Debug("reusing cached action graph")
	}

	b.logger.Debug("start target graph walk")
	noopsBefore := s.noops.Load()
	var (
		rules []*domain.Rule
		err   error
	)
	if b.opts.Parallel {
		rules, err = s.walkParallel(ctx, targets, b.opts.Parallelism)
	} else {
		rules, err = s.walkSerial(ctx, targets)
	}
	if err != nil {
		return nil, err
	}
	b.logger.Debug("end target graph walk")
	b.logger.Debug(fmt.Sprintf("created %d no-op rules", s.noops.Load()-noopsBefore))

	if hit && b.opts.Check {
		if err := b.check(ctx, graph, fingerprint, targets, rules); err != nil {
			return nil, err
		}
	}
	return domain.NewActionGraph(rules), nil
}

// Invalidate drops the cached action graph.
func (b *Builder) Invalidate() {
	b.mu.Lock()
	b.cached = nil
	b.mu.Unlock()
}

func (b *Builder) check(ctx context.Context, graph *domain.TargetGraph, fingerprint string, targets []domain.BuildTarget, cached []*domain.Rule) error {
	fresh, err := newSession(graph, fingerprint, b.transformer).walkSerial(ctx, targets)
	if err != nil {
		return err
	}
	want := signatures(domain.NewActionGraph(fresh))
	got := signatures(domain.NewActionGraph(cached))
	if want == got {
		return nil
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "fresh",
		ToFile:   "cached",
		Context:  3,
	})
	return zerr.With(domain.ErrActionGraphMismatch, "diff", diff)
}

func signatures(g *domain.ActionGraph) string {
	var sb strings.Builder
	for r := range g.Rules() {
		sb.WriteString(r.Signature())
	}
	return sb.String()
}

// session memoizes the rules of one target graph.
type session struct {
	graph       *domain.TargetGraph
	fingerprint string
	transformer ports.Transformer

	rules sync.Map // domain.BuildTarget -> *domain.Rule
	group singleflight.Group
	noops atomic.Int64
}

func newSession(graph *domain.TargetGraph, fingerprint string, transformer ports.Transformer) *session {
	return &session{graph: graph, fingerprint: fingerprint, transformer: transformer}
}

func (s *session) lookup(t domain.BuildTarget) (*domain.Rule, bool) {
	v, ok := s.rules.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*domain.Rule), true
}

func (s *session) transform(ctx context.Context, node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	rule, err := s.transformer.Transform(ctx, node, deps)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "target", node.Target.String())
	}
	if rule.Target() != node.Target {
		return nil, zerr.With(zerr.With(domain.ErrTransformFailed, "target", node.Target.String()), "rule", rule.Target().String())
	}
	if rule.IsNoop() {
		s.noops.Add(1)
	}
	s.rules.Store(node.Target, rule)
	return rule, nil
}

func (s *session) depRules(node *domain.TargetNode) []*domain.Rule {
	deps := make([]*domain.Rule, len(node.Deps))
	for i, d := range node.Deps {
		deps[i], _ = s.lookup(d)
	}
	return deps
}

// walkSerial transforms the closure of targets in topological order.
func (s *session) walkSerial(ctx context.Context, targets []domain.BuildTarget) ([]*domain.Rule, error) {
	closure, err := s.graph.Closure(targets)
	if err != nil {
		return nil, err
	}
	for _, node := range closure {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := s.lookup(node.Target); ok {
			continue
		}
		if _, err := s.transform(ctx, node, s.depRules(node)); err != nil {
			return nil, err
		}
	}
	return s.roots(targets), nil
}

// walkParallel transforms independent subgraphs concurrently. At most one transform per
// target is in flight, and the semaphore is held only around the transform itself so
// that waiting on dependencies never consumes the budget.
func (s *session) walkParallel(ctx context.Context, targets []domain.BuildTarget, parallelism int) ([]*domain.Rule, error) {
	for _, t := range targets {
		if _, ok := s.graph.Node(t); !ok {
			return nil, zerr.With(domain.ErrTargetNotFound, "target", t.String())
		}
	}
	sem := semaphore.NewWeighted(int64(parallelism))
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			_, err := s.require(gctx, t, sem)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.roots(targets), nil
}

func (s *session) require(ctx context.Context, t domain.BuildTarget, sem *semaphore.Weighted) (*domain.Rule, error) {
	if r, ok := s.lookup(t); ok {
		return r, nil
	}
	v, err, _ := s.group.Do(t.String(), func() (any, error) {
		if r, ok := s.lookup(t); ok {
			return r, nil
		}
		node, _ := s.graph.Node(t)

		g, gctx := errgroup.WithContext(ctx)
		for _, dep := range node.Deps {
			g.Go(func() error {
				_, err := s.require(gctx, dep, sem)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer sem.Release(1)
		return s.transform(ctx, node, s.depRules(node))
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Rule), nil
}

func (s *session) roots(targets []domain.BuildTarget) []*domain.Rule {
	out := make([]*domain.Rule, 0, len(targets))
	for _, t := range targets {
		if r, ok := s.lookup(t); ok {
			out = append(out, r)
		}
	}
	return out
}
