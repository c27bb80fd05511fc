// Package buildengine runs the rules of an action graph bottom-up, reusing outputs on
// disk and artifacts from the cache whenever their keys prove nothing changed, and
// building locally otherwise.
package buildengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/rulekey"
	"go.trai.ch/zerr"
)

// Deps are the collaborators of an Engine.
type Deps struct {
	Cache    ports.ArtifactCache
	Packer   ports.ArtifactPacker
	Records  ports.BuildRecordStore
	Executor ports.StepExecutor
	Hasher   ports.FileHasher
	Tracer   ports.Tracer
	Logger   ports.Logger
	Metrics  ports.Metrics
}

// Options configure one engine.
type Options struct {
	// Root is the absolute workspace root.
	Root string
	// KeySeed is folded into every rule key.
	KeySeed string
	// Mode selects which outputs are materialized and whether local steps run.
	Mode domain.BuildMode
	// KeepGoing keeps building independent rules after a failure.
	KeepGoing bool
	// Concurrency is the weighted budget of local steps. Zero means the number of CPUs.
	Concurrency int
	// StepTimeout bounds the steps of one rule. Zero disables the timeout.
	StepTimeout time.Duration
	// HardCancel interrupts running steps when the build context ends.
	HardCancel bool
}

// Engine builds action graphs.
type Engine struct {
	deps Deps
	opts Options
}

// New creates an engine. Records may be nil, in which case nothing on disk is trusted
// and no records are written.
func New(deps Deps, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Engine{deps: deps, opts: opts}
}

// prefetcher is implemented by hashers that can warm their memo concurrently.
type prefetcher interface {
	Prefetch(ctx context.Context, paths []string) error
}

// Build builds targets and their dependencies. It returns one result per rule of the
// closure in topological order. Rule failures are reported in the results; the error
// is reserved for requests that cannot be planned.
func (e *Engine) Build(ctx context.Context, graph *domain.ActionGraph, targets []domain.BuildTarget) ([]*domain.BuildResult, error) {
	if len(targets) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}
	closure, err := graph.Closure(targets)
	if err != nil {
		return nil, err
	}

	e.emitPlan(ctx, closure, targets)
	e.prefetch(ctx, closure)

	keys := rulekey.NewFactory(e.opts.KeySeed, e.opts.Root, e.deps.Hasher)
	state := newRunState(ctx, e, keys, closure, targets)
	defer state.stop()

	start := time.Now()
	results := state.run()
	// Artifacts that no rule needed extracted stay staged until here.
	_ = os.RemoveAll(e.abs(domain.DefaultStagingPath()))
	e.deps.Logger.Debug(fmt.Sprintf("built %d rule(s) in %v", len(results), time.Since(start).Round(time.Millisecond)))
	return results, nil
}

func (e *Engine) emitPlan(ctx context.Context, closure []*domain.Rule, targets []domain.BuildTarget) {
	plan := ports.BuildPlan{
		Rules:   make([]string, len(closure)),
		Deps:    make(map[string][]string, len(closure)),
		Targets: make([]string, len(targets)),
	}
	for i, r := range closure {
		name := r.Target().String()
		plan.Rules[i] = name
		for _, d := range r.Deps() {
			plan.Deps[name] = append(plan.Deps[name], d.Target().String())
		}
	}
	for i, t := range targets {
		plan.Targets[i] = t.String()
	}
	e.deps.Tracer.EmitPlan(ctx, plan)
}

// prefetch hashes every file source of the closure up front. Failures are left for the
// rule key computation to report against the rule that declared the file.
func (e *Engine) prefetch(ctx context.Context, closure []*domain.Rule) {
	p, ok := e.deps.Hasher.(prefetcher)
	if !ok {
		return
	}
	var paths []string
	for _, r := range closure {
		for _, src := range r.Sources() {
			if !src.IsTarget() {
				paths = append(paths, filepath.Join(e.opts.Root, filepath.FromSlash(src.Path())))
			}
		}
	}
	if err := p.Prefetch(ctx, paths); err != nil {
		e.deps.Logger.Debug("prefetching input hashes: " + err.Error())
	}
}

func (e *Engine) abs(rel string) string {
	return filepath.Join(e.opts.Root, rel)
}

func (e *Engine) stagingPath(key domain.RuleKey) string {
	return e.abs(filepath.Join(domain.DefaultStagingPath(), key.String()+domain.ArtifactExt))
}

// record returns the build record of r, or nil when records are disabled, missing or
// unreadable.
func (e *Engine) record(r *domain.Rule) *domain.BuildRecord {
	if e.deps.Records == nil {
		return nil
	}
	rec, err := e.deps.Records.Get(r.Target())
	if err != nil {
		e.deps.Logger.Warn(zerr.With(err, "target", r.Target().String()).Error())
		return nil
	}
	return rec
}

func (e *Engine) putRecord(rec *domain.BuildRecord) {
	if e.deps.Records == nil {
		return
	}
	rec.Timestamp = time.Now()
	if err := e.deps.Records.Put(rec); err != nil {
		e.deps.Logger.Warn(zerr.With(err, "target", rec.Target).Error())
	}
}

// outputsMatch reports whether the outputs of r on disk still hash to want.
func (e *Engine) outputsMatch(r *domain.Rule, want string) bool {
	if want == "" {
		return false
	}
	got, err := e.deps.Hasher.HashOutputs(e.opts.Root, r.OutputPaths())
	return err == nil && got == want
}
