package buildengine

import (
	"context"
	"io"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/rulekey"
	"golang.org/x/sync/semaphore"
)

// node is the published state of a finished rule. It is written once by the loop
// before any dependent is scheduled and only read afterwards.
type node struct {
	result *domain.BuildResult
	// materialize extracts outputs that were fetched but not yet unpacked.
	// It is nil when the outputs are already in place.
	materialize func() error
}

func (n *node) ensureOutputs() error {
	if n.materialize == nil {
		return nil
	}
	return n.materialize()
}

type runState struct {
	e    *Engine
	keys *rulekey.Factory

	ctx    context.Context
	halt   context.Context
	cancel context.CancelFunc
	budget *semaphore.Weighted

	order      []*domain.Rule
	requested  map[domain.BuildTarget]bool
	dependents map[domain.BuildTarget][]*domain.Rule
	inDegree   map[domain.BuildTarget]int
	nodes      map[domain.BuildTarget]*node

	ready     []*domain.Rule
	active    int
	resultsCh chan *node
}

func newRunState(ctx context.Context, e *Engine, keys *rulekey.Factory, closure []*domain.Rule, targets []domain.BuildTarget) *runState {
	halt, cancel := context.WithCancel(ctx)
	s := &runState{
		e:          e,
		keys:       keys,
		ctx:        ctx,
		halt:       halt,
		cancel:     cancel,
		budget:     semaphore.NewWeighted(int64(e.opts.Concurrency)),
		order:      closure,
		requested:  make(map[domain.BuildTarget]bool, len(targets)),
		dependents: make(map[domain.BuildTarget][]*domain.Rule, len(closure)),
		inDegree:   make(map[domain.BuildTarget]int, len(closure)),
		nodes:      make(map[domain.BuildTarget]*node, len(closure)),
		resultsCh:  make(chan *node),
	}
	for _, t := range targets {
		s.requested[t] = true
	}
	for _, r := range closure {
		s.inDegree[r.Target()] = len(r.Deps())
		for _, d := range r.Deps() {
			s.dependents[d.Target()] = append(s.dependents[d.Target()], r)
		}
		if len(r.Deps()) == 0 {
			s.ready = append(s.ready, r)
		}
	}
	return s
}

func (s *runState) stop() {
	s.cancel()
}

func (s *runState) run() []*domain.BuildResult {
	for len(s.ready) > 0 || s.active > 0 {
		s.schedule()
		if s.active == 0 {
			continue
		}
		n := <-s.resultsCh
		s.active--
		s.finish(n)
	}

	results := make([]*domain.BuildResult, 0, len(s.order))
	for _, r := range s.order {
		results = append(results, s.nodes[r.Target()].result)
	}
	return results
}

func (s *runState) schedule() {
	for len(s.ready) > 0 {
		r := s.ready[0]
		s.ready = s.ready[1:]

		deps := make([]*node, len(r.Deps()))
		for i, d := range r.Deps() {
			deps[i] = s.nodes[d.Target()]
		}

		if err := s.blocked(deps); err != nil {
			s.finish(s.skip(r, err))
			continue
		}

		s.active++
		go func() {
			s.resultsCh <- s.execute(r, deps)
		}()
	}
}

// blocked returns why a rule must not start, or nil.
func (s *runState) blocked(deps []*node) error {
	for _, d := range deps {
		switch d.result.Status {
		case domain.StatusSuccess:
		case domain.StatusUnpopulated:
			if s.e.opts.Mode != domain.ModePopulate {
				return domain.ErrDependencyFailed
			}
		default:
			return domain.ErrDependencyFailed
		}
	}
	if s.halt.Err() != nil {
		return domain.ErrBuildCanceled
	}
	return nil
}

func (s *runState) finish(n *node) {
	res := n.result
	s.nodes[res.Target] = n
	s.e.deps.Metrics.RecordResult(res)
	s.e.deps.Logger.Debug(res.Target.String() + ": " + res.Outcome())

	if res.Status == domain.StatusFailure && !s.e.opts.KeepGoing {
		s.cancel()
	}
	for _, dep := range s.dependents[res.Target] {
		s.inDegree[dep.Target()]--
		if s.inDegree[dep.Target()] == 0 {
			s.ready = append(s.ready, dep)
		}
	}
}

// skip completes a rule that never starts. It still gets a span so renderers see it.
func (s *runState) skip(r *domain.Rule, cause error) *node {
	_, span := s.e.deps.Tracer.Start(s.ctx, r.Target().String())
	res := &domain.BuildResult{Target: r.Target(), Type: r.Type(), Status: domain.StatusCanceled, Err: cause}
	complete(span, res)
	return &node{result: res}
}

func (s *runState) execute(r *domain.Rule, deps []*node) *node {
	ctx, span := s.e.deps.Tracer.Start(s.ctx, r.Target().String(), ports.WithAttribute(ports.RuleTypeAttribute, r.Type()))
	start := time.Now()
	b := &ruleBuild{
		s:    s,
		rule: r,
		deps: deps,
		span: &lockedWriter{w: span},
		res:  &domain.BuildResult{Target: r.Target(), Type: r.Type()},
	}
	n := b.run(ctx)
	n.result.Duration = time.Since(start)
	complete(span, n.result)
	return n
}

func complete(span ports.Span, res *domain.BuildResult) {
	span.SetAttribute(ports.OutcomeAttribute, res.Outcome())
	if res.Cache.Type == domain.CacheHit {
		span.SetAttribute(ports.CacheSourceAttribute, res.Cache.Source)
	}
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	span.End()
}

// lockedWriter serializes writes from a rule's stdout and stderr into its span.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
