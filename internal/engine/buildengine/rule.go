package buildengine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// ruleBuild runs the per-rule procedure: reuse outputs on disk, then the dependency
// file key, then the rule key, then local steps.
type ruleBuild struct {
	s    *runState
	rule *domain.Rule
	deps []*node
	span *lockedWriter
	res  *domain.BuildResult
}

func (b *ruleBuild) run(ctx context.Context) *node {
	r := b.rule
	b.res.Cache = domain.CacheResult{Type: domain.CacheSkipped}
	if r.IsNoop() {
		return b.succeed(domain.Noop, nil)
	}

	key, err := b.s.keys.RuleKey(r)
	if err != nil {
		return b.fail(err)
	}
	b.res.RuleKey = key

	rec := b.s.e.record(r)
	if rec != nil && rec.RuleKey == key && b.s.e.outputsMatch(r, rec.OutputHash) {
		return b.succeed(domain.MatchingRuleKey, nil)
	}

	if n := b.tryDepFile(ctx, rec); n != nil {
		return n
	}

	if n := b.fetch(ctx, key, domain.RuleKey{}, domain.FetchedFromCache); n != nil {
		return n
	}

	if b.s.e.opts.Mode == domain.ModePopulate {
		b.res.Status = domain.StatusUnpopulated
		return &node{result: b.res}
	}
	return b.buildLocally(ctx, key)
}

// tryDepFile reuses outputs through the dependency file key. It applies only when the
// record was written by a build of the same manifest, so the used inputs it lists are
// still meaningful for the rule.
func (b *ruleBuild) tryDepFile(ctx context.Context, rec *domain.BuildRecord) *node {
	r := b.rule
	if !r.UsesDepFile() || rec == nil || !rec.HasDepFile() {
		return nil
	}
	manifest, err := b.s.keys.ManifestKey(r)
	if err != nil || manifest != rec.ManifestKey {
		return nil
	}
	if err := b.materializeDeps(); err != nil {
		return b.fail(err)
	}
	dfk, err := b.s.keys.DepFileKey(r, rec.UsedInputs)
	if err != nil {
		b.s.e.deps.Logger.Debug(zerr.With(err, "target", r.Target().String()).Error())
		return nil
	}
	b.res.DepFileKey = dfk

	if dfk == rec.DepFileKey && b.s.e.outputsMatch(r, rec.OutputHash) {
		updated := *rec
		updated.RuleKey = b.res.RuleKey
		b.s.e.putRecord(&updated)
		return b.succeed(domain.MatchingDepFileRuleKey, nil)
	}
	return b.fetch(ctx, dfk, dfk, domain.FetchedFromCacheDepFile)
}

// fetch looks up key and, on a hit, returns a successful node. Outputs are extracted
// right away in DEEP mode and for requested targets; otherwise on first use.
func (b *ruleBuild) fetch(ctx context.Context, key, dfk domain.RuleKey, kind domain.SuccessKind) *node {
	e := b.s.e
	staging := e.stagingPath(key)
	res := e.deps.Cache.Fetch(ctx, key, staging)
	e.deps.Metrics.RecordCacheLookup(res)
	b.res.Cache = res

	switch res.Type {
	case domain.CacheHit:
	case domain.CacheError:
		e.deps.Logger.Warn(zerr.With(zerr.With(res.Err, "target", b.rule.Target().String()), "cache", res.Source).Error())
		return nil
	default:
		return nil
	}

	unpack := sync.OnceValue(func() error {
		return b.unpack(staging, dfk)
	})
	if e.opts.Mode == domain.ModeDeep || b.s.requested[b.rule.Target()] {
		if err := unpack(); err != nil {
			e.deps.Logger.Warn(err.Error())
			b.res.Cache = domain.CacheErr(res.Source, err)
			return nil
		}
		return b.succeed(kind, nil)
	}
	return b.succeed(kind, unpack)
}

// unpack replaces the rule's output directory with the staged artifact and records
// the build so that the next build can match it on disk.
func (b *ruleBuild) unpack(staging string, dfk domain.RuleKey) error {
	e := b.s.e
	r := b.rule
	defer func() { _ = os.Remove(staging) }()

	outDir := e.abs(domain.OutputDir(r.Target()))
	if err := os.RemoveAll(outDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "path", outDir)
	}
	meta, err := e.deps.Packer.Unpack(staging, e.opts.Root, domain.OutputDir(r.Target()))
	e.deps.Hasher.Invalidate(outDir)
	if err != nil {
		_ = os.RemoveAll(outDir)
		return zerr.With(err, "target", r.Target().String())
	}
	hash, err := e.deps.Hasher.HashOutputs(e.opts.Root, r.OutputPaths())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactCorrupt.Error()), "target", r.Target().String())
	}

	rec := &domain.BuildRecord{
		Target:      r.Target().String(),
		RuleKey:     b.res.RuleKey,
		ManifestKey: meta.ManifestKey,
		DepFileKey:  meta.DepFileKey,
		UsedInputs:  meta.UsedInputs,
		OutputHash:  hash,
	}
	if !dfk.IsZero() {
		rec.DepFileKey = dfk
	}
	e.putRecord(rec)
	return nil
}

func (b *ruleBuild) materializeDeps() error {
	for _, d := range b.deps {
		if err := d.ensureOutputs(); err != nil {
			return err
		}
	}
	return nil
}

func (b *ruleBuild) buildLocally(ctx context.Context, key domain.RuleKey) *node {
	s := b.s
	e := s.e
	r := b.rule

	if s.halt.Err() != nil {
		return b.cancel(domain.ErrBuildCanceled)
	}
	if err := b.materializeDeps(); err != nil {
		return b.fail(err)
	}

	weight := min(r.Weight(), int64(e.opts.Concurrency))
	if err := s.budget.Acquire(s.halt, weight); err != nil {
		return b.cancel(domain.ErrBuildCanceled)
	}
	defer s.budget.Release(weight)

	if err := b.runSteps(ctx); err != nil {
		if errors.Is(err, domain.ErrBuildCanceled) {
			return b.cancel(err)
		}
		return b.fail(err)
	}

	hash, err := e.deps.Hasher.HashOutputs(e.opts.Root, r.OutputPaths())
	if err != nil {
		return b.fail(err)
	}

	meta := &domain.ArtifactMeta{Target: r.Target().String(), RuleKey: key}
	if r.UsesDepFile() {
		b.depFile(meta)
	}
	b.res.DepFileKey = meta.DepFileKey
	b.storeArtifact(ctx, meta)

	e.putRecord(&domain.BuildRecord{
		Target:      meta.Target,
		RuleKey:     key,
		ManifestKey: meta.ManifestKey,
		DepFileKey:  meta.DepFileKey,
		UsedInputs:  meta.UsedInputs,
		OutputHash:  hash,
	})
	_ = os.RemoveAll(e.abs(domain.ScratchDir(r.Target())))
	return b.succeed(domain.BuiltLocally, nil)
}

// depFile reads the inputs the steps reported and derives the narrower keys from
// them. Any problem only costs the dependency file key of this build.
func (b *ruleBuild) depFile(meta *domain.ArtifactMeta) {
	e := b.s.e
	r := b.rule
	used, err := readDepFile(e.abs(filepath.Join(domain.ScratchDir(r.Target()), domain.DepFileName)))
	if err != nil {
		e.deps.Logger.Warn(zerr.With(err, "target", r.Target().String()).Error())
		return
	}
	dfk, err := b.s.keys.DepFileKey(r, used)
	if err != nil {
		e.deps.Logger.Warn(zerr.With(err, "target", r.Target().String()).Error())
		return
	}
	manifest, err := b.s.keys.ManifestKey(r)
	if err != nil {
		e.deps.Logger.Warn(err.Error())
		return
	}
	meta.DepFileKey = dfk
	meta.ManifestKey = manifest
	meta.UsedInputs = used
}

// storeArtifact packs the outputs and stores them under the rule key and the
// dependency file key. Failures are logged and never fail the rule.
func (b *ruleBuild) storeArtifact(ctx context.Context, meta *domain.ArtifactMeta) {
	e := b.s.e
	r := b.rule
	staging := e.stagingPath(meta.RuleKey)
	defer func() { _ = os.Remove(staging) }()

	if err := e.deps.Packer.Pack(e.opts.Root, r.OutputPaths(), meta, staging); err != nil {
		e.deps.Logger.Warn(zerr.With(err, "target", meta.Target).Error())
		return
	}
	ctx = context.WithoutCancel(ctx)
	keys := []domain.RuleKey{meta.RuleKey}
	if !meta.DepFileKey.IsZero() {
		keys = append(keys, meta.DepFileKey)
	}
	for _, k := range keys {
		err := e.deps.Cache.Store(ctx, k, staging)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrCacheReadOnly):
			e.deps.Logger.Debug("cache is read-only, not storing " + meta.Target)
			return
		default:
			e.deps.Logger.Warn(zerr.With(err, "target", meta.Target).Error())
		}
	}
}

func (b *ruleBuild) succeed(kind domain.SuccessKind, materialize func() error) *node {
	r := b.rule
	b.res.Status = domain.StatusSuccess
	b.res.Kind = kind
	b.res.OutputPaths = r.OutputPaths()
	if r.Outputs().Kind == domain.OutputNamed {
		b.res.Outputs = make(map[string]string, len(r.Outputs().Named))
		for name, p := range r.Outputs().Named {
			b.res.Outputs[name] = filepath.Join(domain.OutputDir(r.Target()), filepath.FromSlash(p))
		}
	}
	return &node{result: b.res, materialize: materialize}
}

func (b *ruleBuild) fail(err error) *node {
	b.res.Status = domain.StatusFailure
	b.res.Err = err
	return &node{result: b.res}
}

func (b *ruleBuild) cancel(err error) *node {
	b.res.Status = domain.StatusCanceled
	b.res.Err = err
	return &node{result: b.res}
}
