// Package rulekey computes the digests that decide whether a rule's outputs can be reused.
//
// Three keys exist per rule. The rule key folds every key-contributing field with file
// sources by content and target sources by the producing rule's key; it can be computed
// before any dependency is built. The manifest key folds the same fields with every
// source reduced to its resolved path, identifying the rule's shape independently of
// content. The dependency-file key folds only the content of the inputs a previous build
// reported as used.
package rulekey

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const keyVersion = "kiln.rulekey.v1"

// Factory computes rule keys for one build. Rule keys are memoized per target.
type Factory struct {
	seed   string
	root   string
	hasher ports.FileHasher

	mu   sync.RWMutex
	keys map[domain.BuildTarget]domain.RuleKey
}

// NewFactory creates a factory. seed is folded into every key; root anchors file sources.
func NewFactory(seed, root string, hasher ports.FileHasher) *Factory {
	return &Factory{
		seed:   seed,
		root:   root,
		hasher: hasher,
		keys:   make(map[domain.BuildTarget]domain.RuleKey),
	}
}

// RuleKey returns the rule key of r, computing the keys of its dependencies first.
func (f *Factory) RuleKey(r *domain.Rule) (domain.RuleKey, error) {
	f.mu.RLock()
	k, ok := f.keys[r.Target()]
	f.mu.RUnlock()
	if ok {
		return k, nil
	}

	b := f.header(r)
	for _, dep := range r.Deps() {
		depKey, err := f.RuleKey(dep)
		if err != nil {
			return domain.RuleKey{}, err
		}
		b.tag(tagDep)
		b.str(dep.Target().String())
		b.key(depKey)
	}
	if err := f.body(b, r, f.contentSource(r)); err != nil {
		return domain.RuleKey{}, err
	}
	k = b.sum()

	f.mu.Lock()
	f.keys[r.Target()] = k
	f.mu.Unlock()
	return k, nil
}

// ManifestKey returns the path-only key of r.
func (f *Factory) ManifestKey(r *domain.Rule) (domain.RuleKey, error) {
	b := f.header(r)
	for _, dep := range r.Deps() {
		b.tag(tagDep)
		b.str(dep.Target().String())
	}
	err := f.body(b, r, func(b *builder, src domain.SourcePath) error {
		resolved, err := r.ResolveSource(src)
		if err != nil {
			return err
		}
		b.tag(tagFileSource)
		b.str(filepath.ToSlash(resolved))
		return nil
	})
	if err != nil {
		return domain.RuleKey{}, keyError(err, r)
	}
	return b.sum(), nil
}

// DepFileKey returns the key of r restricted to the used inputs, which are root-relative
// slash-separated paths. Deps that no source refers to contribute their full rule key. A used path must be a resolved source of r or lie inside
// a source directory; anything else fails with ErrUndeclaredInput.
func (f *Factory) DepFileKey(r *domain.Rule, used []string) (domain.RuleKey, error) {
	declared, err := resolvedSources(r)
	if err != nil {
		return domain.RuleKey{}, keyError(err, r)
	}
	usedSorted := slices.Sorted(slices.Values(used))
	for _, u := range usedSorted {
		if !slices.ContainsFunc(declared, func(d string) bool { return covers(d, u) }) {
			return domain.RuleKey{}, zerr.With(zerr.With(domain.ErrUndeclaredInput, "target", r.Target().String()), "input", u)
		}
	}

	b := f.header(r)
	for _, dep := range r.Deps() {
		b.tag(tagDep)
		b.str(dep.Target().String())
		if referenced(r, dep.Target()) {
			continue
		}
		// Steps may read a dep's outputs without naming them as sources.
		depKey, err := f.RuleKey(dep)
		if err != nil {
			return domain.RuleKey{}, err
		}
		b.key(depKey)
	}
	err = f.body(b, r, func(b *builder, src domain.SourcePath) error {
		resolved, err := r.ResolveSource(src)
		if err != nil {
			return err
		}
		p := filepath.ToSlash(resolved)
		b.tag(tagFileSource)
		b.str(p)
		folded := false
		for _, u := range usedSorted {
			if !covers(p, u) {
				continue
			}
			h, err := f.hasher.HashPath(filepath.Join(f.root, filepath.FromSlash(u)))
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrInputNotFound.Error()), "input", u)
			}
			b.tag(tagUsedInput)
			b.str(u)
			b.fixed(h)
			folded = true
		}
		if !folded {
			b.tag(tagUnusedInput)
		}
		return nil
	})
	if err != nil {
		return domain.RuleKey{}, keyError(err, r)
	}
	return b.sum(), nil
}

// Known returns the memoized rule key of target, if computed.
func (f *Factory) Known(target domain.BuildTarget) (domain.RuleKey, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	k, ok := f.keys[target]
	return k, ok
}

func (f *Factory) header(r *domain.Rule) *builder {
	b := newBuilder()
	b.str(keyVersion)
	b.str(f.seed)
	b.str(r.Type())
	b.str(r.Target().String())
	return b
}

func (f *Factory) body(b *builder, r *domain.Rule, fold sourceFolder) error {
	b.uvarint(uint64(len(r.Fields())))
	for _, field := range r.Fields() {
		if err := b.field(field, fold); err != nil {
			return err
		}
	}
	steps := r.Steps()
	b.uvarint(uint64(len(steps)))
	for i := range steps {
		if err := b.step(&steps[i], fold); err != nil {
			return err
		}
	}
	b.tag(tagOutputs)
	b.str(r.Outputs().String())
	if r.UsesDepFile() {
		b.uvarint(1)
	} else {
		b.uvarint(0)
	}
	return nil
}

func (f *Factory) contentSource(r *domain.Rule) sourceFolder {
	return func(b *builder, src domain.SourcePath) error {
		if src.IsTarget() {
			var dep *domain.Rule
			for _, d := range r.Deps() {
				if d.Target() == src.Target() {
					dep = d
					break
				}
			}
			if dep == nil {
				return keyError(zerr.With(domain.ErrUndeclaredSourceDep, "source", src.String()), r)
			}
			depKey, err := f.RuleKey(dep)
			if err != nil {
				return err
			}
			b.tag(tagTargetSource)
			b.str(src.Target().String())
			b.str(src.Output())
			b.key(depKey)
			return nil
		}
		h, err := f.hasher.HashPath(filepath.Join(f.root, filepath.FromSlash(src.Path())))
		if err != nil {
			return keyError(zerr.With(zerr.Wrap(err, domain.ErrInputNotFound.Error()), "input", src.Path()), r)
		}
		b.tag(tagFileSource)
		b.str(src.Path())
		b.fixed(h)
		return nil
	}
}

func resolvedSources(r *domain.Rule) ([]string, error) {
	srcs := r.Sources()
	out := make([]string, 0, len(srcs))
	for _, s := range srcs {
		p, err := r.ResolveSource(s)
		if err != nil {
			return nil, err
		}
		out = append(out, filepath.ToSlash(p))
	}
	return out, nil
}

// referenced reports whether one of r's sources is an output of target.
func referenced(r *domain.Rule, target domain.BuildTarget) bool {
	return slices.ContainsFunc(r.Sources(), func(s domain.SourcePath) bool {
		return s.IsTarget() && s.Target() == target
	})
}

// covers reports whether the declared path d is u or a directory containing u.
func covers(d, u string) bool {
	return d == u || d == "." || strings.HasPrefix(u, d+"/")
}

func keyError(err error, r *domain.Rule) error {
	return zerr.With(zerr.Wrap(err, domain.ErrRuleKeyFailed.Error()), "target", r.Target().String())
}
