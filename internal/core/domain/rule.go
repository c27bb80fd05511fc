package domain

import (
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// OutputKind tells how a rule declares its outputs.
type OutputKind uint8

const (
	// OutputNone marks a rule without outputs.
	OutputNone OutputKind = iota
	// OutputSingle marks a rule with one default output.
	OutputSingle
	// OutputNamed marks a rule with a set of named outputs.
	OutputNamed
)

// Outputs declares the files a rule produces, relative to its output directory.
type Outputs struct {
	Kind  OutputKind
	Path  string
	Named map[string]string
}

// NoOutputs declares a rule without outputs.
func NoOutputs() Outputs {
	return Outputs{Kind: OutputNone}
}

// SingleOutput declares one default output.
func SingleOutput(p string) Outputs {
	return Outputs{Kind: OutputSingle, Path: path.Clean(p)}
}

// NamedOutputs declares outputs addressable by name.
func NamedOutputs(named map[string]string) Outputs {
	cleaned := make(map[string]string, len(named))
	for k, v := range named {
		cleaned[k] = path.Clean(v)
	}
	return Outputs{Kind: OutputNamed, Named: cleaned}
}

// Paths returns the sorted, deduplicated relative output paths.
func (o Outputs) Paths() []string {
	switch o.Kind {
	case OutputSingle:
		return []string{o.Path}
	case OutputNamed:
		return slices.Compact(slices.Sorted(maps.Values(o.Named)))
	default:
		return nil
	}
}

// Lookup returns the relative path of a named output. The empty name selects the
// default output; for named outputs that is the output directory itself.
func (o Outputs) Lookup(name string) (string, bool) {
	switch o.Kind {
	case OutputSingle:
		if name == "" {
			return o.Path, true
		}
	case OutputNamed:
		if name == "" {
			return ".", true
		}
		p, ok := o.Named[name]
		return p, ok
	case OutputNone:
	}
	return "", false
}

func (o Outputs) String() string {
	switch o.Kind {
	case OutputSingle:
		return "out(" + o.Path + ")"
	case OutputNamed:
		var sb strings.Builder
		sb.WriteString("outs(")
		for i, k := range slices.Sorted(maps.Keys(o.Named)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + "=" + o.Named[k])
		}
		sb.WriteByte(')')
		return sb.String()
	default:
		return "none"
	}
}

// RuleSpec carries the attributes a description supplies to create a rule.
type RuleSpec struct {
	Target  BuildTarget
	Type    string
	Deps    []*Rule
	Fields  []KeyField
	Steps   []Step
	Outputs Outputs
	Weight  int64
	DepFile bool
}

// Rule is a buildable unit: resolved dependencies, key-contributing fields, the steps
// that produce its outputs and scheduling attributes. Rules are immutable.
type Rule struct {
	target   BuildTarget
	ruleType string
	deps     []*Rule
	fields   []KeyField
	steps    []Step
	outputs  Outputs
	weight   int64
	depFile  bool
}

// NewRule validates spec and creates a rule.
func NewRule(spec *RuleSpec) (*Rule, error) {
	if spec.Target.IsZero() || spec.Type == "" {
		return nil, zerr.With(ErrInvalidRule, "target", spec.Target.String())
	}
	if spec.Outputs.Kind == OutputNone && (len(spec.Steps) > 0 || spec.DepFile) {
		return nil, zerr.With(ErrInvalidRule, "target", spec.Target.String())
	}
	for _, p := range spec.Outputs.Paths() {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return nil, zerr.With(zerr.With(ErrOutputPathOutsideRoot, "target", spec.Target.String()), "output", p)
		}
	}

	deps := slices.Clone(spec.Deps)
	slices.SortFunc(deps, func(a, b *Rule) int { return CompareTargets(a.target, b.target) })
	deps = slices.CompactFunc(deps, func(a, b *Rule) bool { return a.target == b.target })

	r := &Rule{
		target:   spec.Target,
		ruleType: spec.Type,
		deps:     deps,
		fields:   slices.Clone(spec.Fields),
		steps:    slices.Clone(spec.Steps),
		outputs:  spec.Outputs,
		weight:   spec.Weight,
		depFile:  spec.DepFile,
	}
	for _, src := range r.Sources() {
		if !src.IsTarget() {
			continue
		}
		dep := r.dep(src.Target())
		if dep == nil {
			return nil, zerr.With(zerr.With(ErrUndeclaredSourceDep, "target", r.target.String()), "source", src.String())
		}
		if _, ok := dep.outputs.Lookup(src.Output()); !ok {
			return nil, zerr.With(zerr.With(ErrUnknownOutput, "target", r.target.String()), "source", src.String())
		}
	}
	return r, nil
}

// Target returns the rule's target.
func (r *Rule) Target() BuildTarget { return r.target }

// Type returns the rule type tag.
func (r *Rule) Type() string { return r.ruleType }

// Deps returns the resolved dependencies, sorted by target.
func (r *Rule) Deps() []*Rule { return r.deps }

// Fields returns the key-contributing fields in declaration order.
func (r *Rule) Fields() []KeyField { return r.fields }

// Steps returns the build steps.
func (r *Rule) Steps() []Step { return r.steps }

// Outputs returns the declared outputs.
func (r *Rule) Outputs() Outputs { return r.outputs }

// UsesDepFile reports whether the rule reports the inputs it actually used.
func (r *Rule) UsesDepFile() bool { return r.depFile }

// IsNoop reports whether the rule has nothing to build.
func (r *Rule) IsNoop() bool { return r.outputs.Kind == OutputNone }

// Weight returns the share of the concurrency budget the rule occupies, at least 1.
func (r *Rule) Weight() int64 {
	return max(r.weight, 1)
}

func (r *Rule) dep(t BuildTarget) *Rule {
	idx, found := slices.BinarySearchFunc(r.deps, t, func(d *Rule, t BuildTarget) int {
		return CompareTargets(d.target, t)
	})
	if !found {
		return nil
	}
	return r.deps[idx]
}

// Sources returns every source path referenced by the rule's fields, in fold order.
func (r *Rule) Sources() []SourcePath {
	var out []SourcePath
	for _, f := range r.fields {
		out = append(out, f.Value.Sources()...)
	}
	return out
}

// OutputPaths returns the root-relative paths of the rule's outputs.
func (r *Rule) OutputPaths() []string {
	rel := r.outputs.Paths()
	out := make([]string, len(rel))
	for i, p := range rel {
		out[i] = filepath.Join(OutputDir(r.target), filepath.FromSlash(p))
	}
	return out
}

// ResolveSource returns the root-relative path a source denotes.
func (r *Rule) ResolveSource(src SourcePath) (string, error) {
	if !src.IsTarget() {
		return filepath.FromSlash(src.Path()), nil
	}
	dep := r.dep(src.Target())
	if dep == nil {
		return "", zerr.With(zerr.With(ErrUndeclaredSourceDep, "target", r.target.String()), "source", src.String())
	}
	rel, ok := dep.outputs.Lookup(src.Output())
	if !ok {
		return "", zerr.With(zerr.With(ErrUnknownOutput, "target", r.target.String()), "source", src.String())
	}
	return filepath.Join(OutputDir(dep.target), filepath.FromSlash(rel)), nil
}

// Signature renders everything that defines the rule, used to compare action graphs.
func (r *Rule) Signature() string {
	var sb strings.Builder
	sb.WriteString(r.target.String() + " (" + r.ruleType + ")\n")
	for _, d := range r.deps {
		sb.WriteString("  dep " + d.target.String() + "\n")
	}
	for _, f := range r.fields {
		sb.WriteString("  field " + f.Name + " = " + f.Value.String() + "\n")
	}
	for _, s := range r.steps {
		sb.WriteString("  step " + s.String() + "\n")
	}
	sb.WriteString("  outputs " + r.outputs.String() + "\n")
	sb.WriteString("  weight " + strconv.FormatInt(r.Weight(), 10) + " depfile " + strconv.FormatBool(r.depFile) + "\n")
	return sb.String()
}
