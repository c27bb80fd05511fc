package descriptions

import (
	"path"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
)

// Genrule runs a shell command that turns its sources into one output or a set of
// named outputs.
//
// Arguments:
//
//	srcs:    files and target references
//	cmd:     a shell string run with /bin/sh -c, or an argv list
//	out:     the single output, or
//	outs:    a map of output names to paths
//	env:     extra environment variables
//	depfile: the command writes the inputs it used to $DEPFILE
//	weight:  share of the concurrency budget
type Genrule struct{}

// Type returns "genrule".
func (Genrule) Type() string { return "genrule" }

// CreateRule creates the genrule's rule.
func (Genrule) CreateRule(node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	a := args{node: node}

	srcs, err := a.sources("srcs")
	if err != nil {
		return nil, err
	}
	argv, err := genruleCommand(a)
	if err != nil {
		return nil, err
	}
	env, err := a.stringMap("env")
	if err != nil {
		return nil, err
	}
	depFile, err := a.boolean("depfile")
	if err != nil {
		return nil, err
	}
	weight, err := a.integer("weight", 1)
	if err != nil {
		return nil, err
	}

	outputs, outField, err := genruleOutputs(a)
	if err != nil {
		return nil, err
	}

	fields := []domain.KeyField{
		domain.SourcesField("srcs", srcs),
		domain.MustKeyField("cmd", argv),
		outField,
		domain.MustKeyField("env", env),
		domain.MustKeyField("depfile", depFile),
	}

	var steps []domain.Step
	for _, dir := range outputDirs(outputs) {
		steps = append(steps, domain.MkdirStep(dir))
	}
	steps = append(steps, domain.ExecStep(argv, env))

	return domain.NewRule(&domain.RuleSpec{
		Target:  node.Target,
		Type:    node.Type,
		Deps:    deps,
		Fields:  fields,
		Steps:   steps,
		Outputs: outputs,
		Weight:  weight,
		DepFile: depFile,
	})
}

func genruleCommand(a args) ([]string, error) {
	switch cmd := a.node.Args["cmd"].(type) {
	case string:
		if cmd == "" {
			return nil, a.invalid("cmd")
		}
		return []string{"/bin/sh", "-c", cmd}, nil
	case []any:
		argv, err := a.strings("cmd")
		if err != nil || len(argv) == 0 {
			return nil, a.invalid("cmd")
		}
		return argv, nil
	default:
		return nil, a.invalid("cmd")
	}
}

func genruleOutputs(a args) (domain.Outputs, domain.KeyField, error) {
	if a.has("out") == a.has("outs") {
		return domain.Outputs{}, domain.KeyField{}, a.invalid("out")
	}
	if a.has("out") {
		out, err := a.str("out", "")
		if err != nil {
			return domain.Outputs{}, domain.KeyField{}, err
		}
		out, err = a.localPath("out", out)
		if err != nil {
			return domain.Outputs{}, domain.KeyField{}, err
		}
		return domain.SingleOutput(out), domain.MustKeyField("out", out), nil
	}

	outs, err := a.stringMap("outs")
	if err != nil {
		return domain.Outputs{}, domain.KeyField{}, err
	}
	if len(outs) == 0 {
		return domain.Outputs{}, domain.KeyField{}, a.invalid("outs")
	}
	for name, p := range outs {
		cleaned, err := a.localPath("outs", p)
		if err != nil {
			return domain.Outputs{}, domain.KeyField{}, err
		}
		outs[name] = cleaned
	}
	return domain.NamedOutputs(outs), domain.MustKeyField("outs", outs), nil
}

// outputDirs returns the sorted parent directories outputs need inside the scratch directory.
func outputDirs(o domain.Outputs) []string {
	var dirs []string
	for _, p := range o.Paths() {
		if dir := path.Dir(p); dir != "." {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}
