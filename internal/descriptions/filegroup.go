package descriptions

import (
	"path"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Filegroup gathers sources into one directory. Each source becomes a named output:
// files keep their path relative to the package, target outputs are named after
// their producing rule.
type Filegroup struct{}

// Type returns "filegroup".
func (Filegroup) Type() string { return "filegroup" }

// CreateRule creates the filegroup's rule.
func (Filegroup) CreateRule(node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	a := args{node: node}

	srcs, err := a.sources("srcs")
	if err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, a.invalid("srcs")
	}

	byTarget := make(map[domain.BuildTarget]*domain.Rule, len(deps))
	for _, d := range deps {
		byTarget[d.Target()] = d
	}

	named := make(map[string]string, len(srcs))
	var steps []domain.Step
	dirs := make(map[string]bool)
	for _, src := range srcs {
		name, err := filegroupEntry(node, src, byTarget)
		if err != nil {
			return nil, err
		}
		if _, dup := named[name]; dup {
			return nil, zerr.With(a.invalid("srcs"), "entry", name)
		}
		named[name] = name
		if dir := path.Dir(name); dir != "." && !dirs[dir] {
			dirs[dir] = true
			steps = append(steps, domain.MkdirStep(dir))
		}
		steps = append(steps, domain.CopyStep(src, name))
	}

	return domain.NewRule(&domain.RuleSpec{
		Target:  node.Target,
		Type:    node.Type,
		Deps:    deps,
		Fields:  []domain.KeyField{domain.SourcesField("srcs", srcs)},
		Steps:   steps,
		Outputs: domain.NamedOutputs(named),
	})
}

func filegroupEntry(node *domain.TargetNode, src domain.SourcePath, deps map[domain.BuildTarget]*domain.Rule) (string, error) {
	if !src.IsTarget() {
		base := node.Target.BasePath()
		if base != "" && strings.HasPrefix(src.Path(), base+"/") {
			return strings.TrimPrefix(src.Path(), base+"/"), nil
		}
		return src.Path(), nil
	}
	dep, ok := deps[src.Target()]
	if !ok {
		return "", zerr.With(zerr.With(domain.ErrUndeclaredSourceDep, "target", node.Target.String()), "source", src.String())
	}
	rel, ok := dep.Outputs().Lookup(src.Output())
	if !ok {
		return "", zerr.With(zerr.With(domain.ErrUnknownOutput, "target", node.Target.String()), "source", src.String())
	}
	if rel == "." {
		return src.Target().ShortName(), nil
	}
	return path.Join(src.Target().ShortName(), path.Base(rel)), nil
}
