package tui_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/tui"
)

func rules(names ...string) map[string]*tui.RuleNode {
	m := make(map[string]*tui.RuleNode, len(names))
	for _, n := range names {
		m[n] = &tui.RuleNode{Name: n, Pane: tui.NewPane()}
	}
	return m
}

func names(nodes []*tui.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Rule.Name
	}
	return out
}

func TestBuildTree_SharedDependency(t *testing.T) {
	t.Parallel()

	rs := rules("//app:a", "//app:b", "//lib:c")
	deps := map[string][]string{
		"//app:a": {"//lib:c"},
		"//app:b": {"//lib:c"},
	}
	roots := tui.BuildTree([]string{"//app:a", "//app:b"}, deps, rs)

	require.Len(t, roots, 2)
	assert.True(t, roots[0].Expanded)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[1].Children, 1)
	assert.Same(t, roots[0].Children[0].Rule, roots[1].Children[0].Rule, "occurrences share state")
	assert.Equal(t, 1, roots[0].Children[0].Depth)
	assert.Same(t, roots[0], roots[0].Children[0].Parent)
}

func TestBuildTree_UnknownTarget(t *testing.T) {
	t.Parallel()

	roots := tui.BuildTree([]string{"//x:missing"}, nil, rules("//a:a"))
	assert.Empty(t, roots)
}

func TestFlattenTree_RespectsExpansion(t *testing.T) {
	t.Parallel()

	rs := rules("a", "b", "c")
	roots := tui.BuildTree([]string{"a"}, map[string][]string{"a": {"b"}, "b": {"c"}}, rs)

	assert.Equal(t, []string{"a", "b"}, names(tui.FlattenTree(roots)))
	roots[0].Children[0].Expanded = true
	assert.Equal(t, []string{"a", "b", "c"}, names(tui.FlattenTree(roots)))
	roots[0].Expanded = false
	assert.Equal(t, []string{"a"}, names(tui.FlattenTree(roots)))
}

func TestExpandTo(t *testing.T) {
	t.Parallel()

	rs := rules("a", "b", "c")
	roots := tui.BuildTree([]string{"a"}, map[string][]string{"a": {"b"}, "b": {"c"}}, rs)
	roots[0].Expanded = false

	require.True(t, tui.ExpandTo(roots, "c"))
	assert.Equal(t, []string{"a", "b", "c"}, names(tui.FlattenTree(roots)))
	assert.False(t, tui.ExpandTo(roots, "zzz"))
}
