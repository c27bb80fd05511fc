package descriptions

import (
	"path"

	"go.trai.ch/kiln/internal/core/domain"
)

// ExportFile copies one source into the rule's output directory, making a file
// addressable as a target.
type ExportFile struct{}

// Type returns "export_file".
func (ExportFile) Type() string { return "export_file" }

// CreateRule creates the export_file's rule.
func (ExportFile) CreateRule(node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	a := args{node: node}

	src, err := a.source("src")
	if err != nil {
		return nil, err
	}
	def := ""
	if !src.IsTarget() {
		def = path.Base(src.Path())
	}
	out, err := a.str("out", def)
	if err != nil {
		return nil, err
	}
	out, err = a.localPath("out", out)
	if err != nil {
		return nil, err
	}

	var steps []domain.Step
	if dir := path.Dir(out); dir != "." {
		steps = append(steps, domain.MkdirStep(dir))
	}
	steps = append(steps, domain.CopyStep(src, out))

	return domain.NewRule(&domain.RuleSpec{
		Target: node.Target,
		Type:   node.Type,
		Deps:   deps,
		Fields: []domain.KeyField{
			domain.SourcesField("src", []domain.SourcePath{src}),
			domain.MustKeyField("out", out),
		},
		Steps:   steps,
		Outputs: domain.SingleOutput(out),
	})
}
