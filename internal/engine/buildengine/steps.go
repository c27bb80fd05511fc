package buildengine

import (
	"context"
	"errors"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// scratchTmpName is the directory inside the scratch directory exposed as $TMP.
const scratchTmpName = ".tmp"

// runSteps executes the rule's steps in a fresh scratch directory and publishes the
// declared outputs once every step succeeded.
func (b *ruleBuild) runSteps(ctx context.Context) error {
	e := b.s.e
	r := b.rule

	scratch := e.abs(domain.ScratchDir(r.Target()))
	if err := os.RemoveAll(scratch); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "path", scratch)
	}
	tmp := filepath.Join(scratch, scratchTmpName)
	if err := os.MkdirAll(tmp, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "path", tmp)
	}

	steps, err := b.prepare(scratch, tmp)
	if err != nil {
		return err
	}

	stepCtx := context.WithoutCancel(ctx)
	if e.opts.HardCancel {
		stepCtx = ctx
	}
	if e.opts.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, e.opts.StepTimeout)
		defer cancel()
	}

	start := time.Now()
	for _, step := range steps {
		err := e.deps.Executor.Execute(stepCtx, step, b.span, b.span)
		if err == nil {
			continue
		}
		switch {
		case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
			return zerr.With(zerr.Wrap(err, domain.ErrStepTimeout.Error()), "timeout", e.opts.StepTimeout.String())
		case e.opts.HardCancel && ctx.Err() != nil:
			return domain.ErrBuildCanceled
		default:
			return zerr.With(err, "target", r.Target().String())
		}
	}
	e.deps.Metrics.RecordSteps(r.Type(), time.Since(start))

	return b.publish(scratch)
}

// prepare resolves the steps of the rule against the workspace and scratch directory.
func (b *ruleBuild) prepare(scratch, tmp string) ([]*domain.PreparedStep, error) {
	e := b.s.e
	r := b.rule

	srcs := make([]string, 0, len(r.Sources()))
	for _, src := range r.Sources() {
		rel, err := r.ResolveSource(src)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, e.abs(rel))
	}

	out := scratch
	if r.Outputs().Kind == domain.OutputSingle {
		out = filepath.Join(scratch, filepath.FromSlash(r.Outputs().Path))
	}
	env := map[string]string{
		"SRCS":    strings.Join(srcs, " "),
		"OUT":     out,
		"TMP":     tmp,
		"FLAVORS": strings.Join(r.Target().Flavors(), ","),
	}
	if r.UsesDepFile() {
		env["DEPFILE"] = filepath.Join(scratch, domain.DepFileName)
	}

	prepared := make([]*domain.PreparedStep, 0, len(r.Steps()))
	for _, step := range r.Steps() {
		ps := &domain.PreparedStep{
			Kind:    step.Kind,
			Argv:    slices.Clone(step.Argv),
			Dir:     scratch,
			Content: step.Content,
		}
		if step.Kind == domain.StepExec {
			ps.Env = maps.Clone(step.Env)
			if ps.Env == nil {
				ps.Env = make(map[string]string, len(env))
			}
			maps.Copy(ps.Env, env)
		}
		if step.Dst != "" {
			dst := filepath.FromSlash(step.Dst)
			if !filepath.IsLocal(dst) {
				return nil, zerr.With(zerr.With(domain.ErrOutputPathOutsideRoot, "target", r.Target().String()), "path", step.Dst)
			}
			ps.Dst = filepath.Join(scratch, dst)
		}
		if step.Kind == domain.StepCopy {
			rel, err := r.ResolveSource(step.Src)
			if err != nil {
				return nil, err
			}
			ps.Src = e.abs(rel)
		}
		prepared = append(prepared, ps)
	}
	return prepared, nil
}

// publish moves the declared outputs from the scratch directory into the output
// directory. Nothing is moved unless every output exists.
func (b *ruleBuild) publish(scratch string) error {
	e := b.s.e
	r := b.rule

	paths := r.Outputs().Paths()
	for _, p := range paths {
		if _, err := os.Lstat(filepath.Join(scratch, filepath.FromSlash(p))); err != nil {
			return zerr.With(zerr.With(domain.ErrOutputMissing, "target", r.Target().String()), "output", p)
		}
	}

	outDir := e.abs(domain.OutputDir(r.Target()))
	defer e.deps.Hasher.Invalidate(outDir)
	if err := os.RemoveAll(outDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "path", outDir)
	}
	for _, p := range paths {
		dst := filepath.Join(outDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "path", dst)
		}
		if err := os.Rename(filepath.Join(scratch, filepath.FromSlash(p)), dst); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrOutputMissing.Error()), "output", p)
		}
	}
	return nil
}

// readDepFile returns the sorted root-relative paths listed one per line in file.
func readDepFile(file string) ([]string, error) {
	data, err := os.ReadFile(file) //nolint:gosec // Path is inside the scratch directory
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDepFileReadFailed.Error()), "path", file)
	}
	var used []string
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		used = append(used, path.Clean(filepath.ToSlash(line)))
	}
	slices.Sort(used)
	return slices.Compact(used), nil
}
