package descriptions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/descriptions"
)

func node(t *testing.T, target, ruleType string, args map[string]any, deps ...string) *domain.TargetNode {
	t.Helper()
	ds := make([]domain.BuildTarget, len(deps))
	for i, d := range deps {
		ds[i] = domain.MustBuildTarget(d)
	}
	n, err := domain.NewTargetNode(domain.MustBuildTarget(target), ruleType, args, ds)
	require.NoError(t, err)
	return n
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := descriptions.Builtin()
	assert.Equal(t, []string{"export_file", "filegroup", "genrule", "noop"}, r.Types())
	assert.Contains(t, r.Version(), "genrule")

	_, err := r.Transform(context.Background(), node(t, "//a:x", "cc_binary", nil), nil)
	require.ErrorContains(t, err, domain.ErrUnknownRuleType.Error())

	_, err = descriptions.NewRegistry(descriptions.Noop{}, descriptions.Noop{})
	require.ErrorContains(t, err, domain.ErrDuplicateRuleType.Error())
}

func TestGenrule(t *testing.T) {
	t.Parallel()

	r := descriptions.Builtin()
	ctx := context.Background()

	gen, err := r.Transform(ctx, node(t, "//gen:hdr", "genrule", map[string]any{
		"cmd":  "echo '#define X 1' > $OUT",
		"out":  "include/x.h",
		"srcs": []any{"gen/template.in"},
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutputSingle, gen.Outputs().Kind)
	assert.Equal(t, "include/x.h", gen.Outputs().Path)
	require.Len(t, gen.Steps(), 2)
	assert.Equal(t, domain.StepMkdir, gen.Steps()[0].Kind)
	assert.Equal(t, []string{"/bin/sh", "-c", "echo '#define X 1' > $OUT"}, gen.Steps()[1].Argv)

	lib, err := r.Transform(ctx, node(t, "//lib:lib", "genrule", map[string]any{
		"cmd":     []any{"cc", "-c"},
		"outs":    map[string]any{"obj": "lib.o", "map": "lib.map"},
		"srcs":    []any{"lib/lib.c", "//gen:hdr"},
		"env":     map[string]any{"CFLAGS": "-O2"},
		"depfile": true,
		"weight":  4,
	}, "//gen:hdr"), []*domain.Rule{gen})
	require.NoError(t, err)
	assert.True(t, lib.UsesDepFile())
	assert.Equal(t, int64(4), lib.Weight())
	assert.Equal(t, []string{"lib.map", "lib.o"}, lib.Outputs().Paths())
	assert.Equal(t, []domain.SourcePath{
		domain.NewFileSource("lib/lib.c"),
		domain.NewTargetSource(gen.Target(), ""),
	}, lib.Sources())

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "Missing cmd", args: map[string]any{"out": "x"}},
		{name: "Out and outs", args: map[string]any{"cmd": "true", "out": "x", "outs": map[string]any{"a": "b"}}},
		{name: "Neither out nor outs", args: map[string]any{"cmd": "true"}},
		{name: "Escaping out", args: map[string]any{"cmd": "true", "out": "../x"}},
		{name: "Fractional weight", args: map[string]any{"cmd": "true", "out": "x", "weight": 1.5}},
		{name: "Non-string srcs", args: map[string]any{"cmd": "true", "out": "x", "srcs": []any{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Transform(ctx, node(t, "//bad:rule", "genrule", tt.args), nil)
			require.ErrorContains(t, err, domain.ErrInvalidArgument.Error())
		})
	}
}

func TestExportFile(t *testing.T) {
	t.Parallel()

	rule, err := descriptions.Builtin().Transform(context.Background(), node(t, "//cfg:conf", "export_file", map[string]any{
		"src": "cfg/app.conf",
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, "app.conf", rule.Outputs().Path)
	require.Len(t, rule.Steps(), 1)
	assert.Equal(t, domain.StepCopy, rule.Steps()[0].Kind)
	assert.Equal(t, domain.NewFileSource("cfg/app.conf"), rule.Steps()[0].Src)
}

func TestFilegroup(t *testing.T) {
	t.Parallel()

	r := descriptions.Builtin()
	ctx := context.Background()

	gen, err := r.Transform(ctx, node(t, "//gen:hdr", "genrule", map[string]any{"cmd": "true", "out": "x.h"}), nil)
	require.NoError(t, err)

	group, err := r.Transform(ctx, node(t, "//pkg:files", "filegroup", map[string]any{
		"srcs": []any{"pkg/a.txt", "pkg/sub/b.txt", "//gen:hdr"},
	}, "//gen:hdr"), []*domain.Rule{gen})
	require.NoError(t, err)

	assert.Equal(t, domain.OutputNamed, group.Outputs().Kind)
	assert.Equal(t, map[string]string{
		"a.txt":     "a.txt",
		"sub/b.txt": "sub/b.txt",
		"hdr/x.h":   "hdr/x.h",
	}, group.Outputs().Named)

	_, err = r.Transform(ctx, node(t, "//pkg:dup", "filegroup", map[string]any{
		"srcs": []any{"pkg/a.txt", "pkg/a.txt"},
	}), nil)
	require.ErrorContains(t, err, domain.ErrInvalidArgument.Error())
}

func TestNoop(t *testing.T) {
	t.Parallel()

	leaf, err := descriptions.Builtin().Transform(context.Background(), node(t, "//a:leaf", "noop", nil), nil)
	require.NoError(t, err)
	rule, err := descriptions.Builtin().Transform(context.Background(), node(t, "//a:all", "noop", nil, "//a:leaf"), []*domain.Rule{leaf})
	require.NoError(t, err)
	assert.True(t, rule.IsNoop())
	assert.Len(t, rule.Deps(), 1)
}
