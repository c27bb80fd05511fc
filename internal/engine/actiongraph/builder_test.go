package actiongraph_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/descriptions"
	"go.trai.ch/kiln/internal/engine/actiongraph"
)

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}

// countingTransformer counts transforms per target.
type countingTransformer struct {
	ports.Transformer
	mu     sync.Mutex
	counts map[domain.BuildTarget]int
	total  atomic.Int64
}

func newCounting() *countingTransformer {
	return &countingTransformer{Transformer: descriptions.Builtin(), counts: make(map[domain.BuildTarget]int)}
}

func (c *countingTransformer) Transform(ctx context.Context, node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	c.mu.Lock()
	c.counts[node.Target]++
	c.mu.Unlock()
	c.total.Add(1)
	return c.Transformer.Transform(ctx, node, deps)
}

// unstableTransformer adds a counter to every command, so two transforms of one node differ.
type unstableTransformer struct {
	ports.Transformer
	n atomic.Int64
}

func (u *unstableTransformer) Transform(ctx context.Context, node *domain.TargetNode, deps []*domain.Rule) (*domain.Rule, error) {
	args := map[string]any{"out": "o", "cmd": fmt.Sprintf("echo %d", u.n.Add(1))}
	n, err := domain.NewTargetNode(node.Target, "genrule", args, node.Deps)
	if err != nil {
		return nil, err
	}
	return u.Transformer.Transform(ctx, n, deps)
}

// diamond builds //app:bin -> {//lib:a, //lib:b} -> //base:base plus a chain of leaves.
func diamond(t *testing.T, leaves int) *domain.TargetGraph {
	t.Helper()
	mk := func(target string, deps ...string) *domain.TargetNode {
		ds := make([]domain.BuildTarget, len(deps))
		srcs := make([]any, len(deps))
		for i, d := range deps {
			ds[i] = domain.MustBuildTarget(d)
			srcs[i] = d
		}
		n, err := domain.NewTargetNode(domain.MustBuildTarget(target), "genrule", map[string]any{
			"cmd":  "touch $OUT",
			"out":  "out",
			"srcs": srcs,
		}, ds)
		require.NoError(t, err)
		return n
	}
	nodes := []*domain.TargetNode{
		mk("//base:base"),
		mk("//lib:a", "//base:base"),
		mk("//lib:b", "//base:base"),
	}
	binDeps := []string{"//lib:a", "//lib:b"}
	for i := range leaves {
		name := fmt.Sprintf("//leaf:l%d", i)
		nodes = append(nodes, mk(name, "//base:base"))
		binDeps = append(binDeps, name)
	}
	nodes = append(nodes, mk("//app:bin", binDeps...))
	g, err := domain.NewTargetGraph(nodes)
	require.NoError(t, err)
	return g
}

func TestBuild_SerialAndParallelAgree(t *testing.T) {
	t.Parallel()

	g := diamond(t, 16)
	targets := []domain.BuildTarget{domain.MustBuildTarget("//app:bin")}

	serial, err := actiongraph.NewBuilder(descriptions.Builtin(), nopLogger{}, actiongraph.Options{}).
		Build(context.Background(), g, targets)
	require.NoError(t, err)

	parallel, err := actiongraph.NewBuilder(descriptions.Builtin(), nopLogger{}, actiongraph.Options{Parallel: true, Parallelism: 3}).
		Build(context.Background(), g, targets)
	require.NoError(t, err)

	assert.Equal(t, g.Len(), serial.Len())
	assert.Equal(t, serial.Targets(), parallel.Targets())
	for _, target := range serial.Targets() {
		a, _ := serial.Rule(target)
		b, _ := parallel.Rule(target)
		assert.Equal(t, a.Signature(), b.Signature(), target.String())
	}
}

func TestBuild_TransformsEachNodeOnce(t *testing.T) {
	t.Parallel()

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			t.Parallel()

			g := diamond(t, 32)
			tr := newCounting()
			b := actiongraph.NewBuilder(tr, nopLogger{}, actiongraph.Options{Parallel: parallel, Parallelism: 4})

			targets := []domain.BuildTarget{
				domain.MustBuildTarget("//app:bin"),
				domain.MustBuildTarget("//lib:a"),
				domain.MustBuildTarget("//leaf:l3"),
			}
			ag, err := b.Build(context.Background(), g, targets)
			require.NoError(t, err)

			for target, n := range tr.counts {
				assert.Equal(t, 1, n, target.String())
			}
			assert.Equal(t, int64(g.Len()), tr.total.Load())

			base, _ := ag.Rule(domain.MustBuildTarget("//base:base"))
			a, _ := ag.Rule(domain.MustBuildTarget("//lib:a"))
			bb, _ := ag.Rule(domain.MustBuildTarget("//lib:b"))
			assert.Same(t, base, a.Deps()[0])
			assert.Same(t, base, bb.Deps()[0])
		})
	}
}

func TestBuild_ReusesCachedGraph(t *testing.T) {
	t.Parallel()

	g := diamond(t, 2)
	tr := newCounting()
	b := actiongraph.NewBuilder(tr, nopLogger{}, actiongraph.Options{})
	targets := []domain.BuildTarget{domain.MustBuildTarget("//app:bin")}

	first, err := b.Build(context.Background(), g, targets)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), g, targets)
	require.NoError(t, err)

	assert.Equal(t, int64(g.Len()), tr.total.Load(), "second build must not transform again")
	r1, _ := first.Rule(targets[0])
	r2, _ := second.Rule(targets[0])
	assert.Same(t, r1, r2)

	b.Invalidate()
	_, err = b.Build(context.Background(), g, targets)
	require.NoError(t, err)
	assert.Equal(t, int64(2*g.Len()), tr.total.Load())
}

func TestBuild_ConcurrentCallsShareRules(t *testing.T) {
	t.Parallel()

	g := diamond(t, 8)
	tr := newCounting()
	b := actiongraph.NewBuilder(tr, nopLogger{}, actiongraph.Options{Parallel: true})
	first, err := b.Build(context.Background(), g, []domain.BuildTarget{domain.MustBuildTarget("//lib:a")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	graphs := make([]*domain.ActionGraph, 8)
	for i := range graphs {
		wg.Go(func() {
			ag, err := b.Build(context.Background(), g, []domain.BuildTarget{domain.MustBuildTarget("//app:bin")})
			assert.NoError(t, err)
			graphs[i] = ag
		})
	}
	wg.Wait()

	for target, n := range tr.counts {
		assert.Equal(t, 1, n, target.String())
	}
	base, _ := first.Rule(domain.MustBuildTarget("//base:base"))
	for _, ag := range graphs {
		r, ok := ag.Rule(domain.MustBuildTarget("//base:base"))
		require.True(t, ok)
		assert.Same(t, base, r)
	}
}

func TestBuild_UnknownTarget(t *testing.T) {
	t.Parallel()

	g := diamond(t, 0)
	for _, parallel := range []bool{false, true} {
		b := actiongraph.NewBuilder(descriptions.Builtin(), nopLogger{}, actiongraph.Options{Parallel: parallel})
		_, err := b.Build(context.Background(), g, []domain.BuildTarget{domain.MustBuildTarget("//nope:nope")})
		require.ErrorContains(t, err, domain.ErrTargetNotFound.Error())
	}
}

func TestBuild_TransformError(t *testing.T) {
	t.Parallel()

	n, err := domain.NewTargetNode(domain.MustBuildTarget("//a:a"), "unknown_type", nil, nil)
	require.NoError(t, err)
	g, err := domain.NewTargetGraph([]*domain.TargetNode{n})
	require.NoError(t, err)

	for _, parallel := range []bool{false, true} {
		b := actiongraph.NewBuilder(descriptions.Builtin(), nopLogger{}, actiongraph.Options{Parallel: parallel})
		_, err = b.Build(context.Background(), g, []domain.BuildTarget{n.Target})
		require.ErrorContains(t, err, domain.ErrTransformFailed.Error())
	}
}

func TestBuild_CheckDetectsMismatch(t *testing.T) {
	t.Parallel()

	g := diamond(t, 0)
	targets := []domain.BuildTarget{domain.MustBuildTarget("//app:bin")}

	stable := actiongraph.NewBuilder(descriptions.Builtin(), nopLogger{}, actiongraph.Options{Check: true})
	_, err := stable.Build(context.Background(), g, targets)
	require.NoError(t, err)
	_, err = stable.Build(context.Background(), g, targets)
	require.NoError(t, err)

	unstable := actiongraph.NewBuilder(&unstableTransformer{Transformer: descriptions.Builtin()}, nopLogger{}, actiongraph.Options{Check: true})
	_, err = unstable.Build(context.Background(), g, targets)
	require.NoError(t, err)
	_, err = unstable.Build(context.Background(), g, targets)
	require.ErrorContains(t, err, domain.ErrActionGraphMismatch.Error())
}

// debugLines records debug messages.
type debugLines struct {
	nopLogger
	mu    sync.Mutex
	lines []string
}

func (d *debugLines) Debug(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, msg)
}

func (d *debugLines) matching(prefix string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, l := range d.lines {
		if strings.HasPrefix(l, prefix) {
			out = append(out, l)
		}
	}
	return out
}

func TestBuild_NoopCountPerWalk(t *testing.T) {
	t.Parallel()

	mk := func(target, kind string, deps ...string) *domain.TargetNode {
		ds := make([]domain.BuildTarget, len(deps))
		for i, d := range deps {
			ds[i] = domain.MustBuildTarget(d)
		}
		args := map[string]any{}
		if kind == "genrule" {
			args = map[string]any{"cmd": "touch $OUT", "out": "out"}
		}
		n, err := domain.NewTargetNode(domain.MustBuildTarget(target), kind, args, ds)
		require.NoError(t, err)
		return n
	}
	g, err := domain.NewTargetGraph([]*domain.TargetNode{
		mk("//a:leaf", "genrule"),
		mk("//a:one", "noop", "//a:leaf"),
		mk("//a:two", "noop", "//a:leaf"),
	})
	require.NoError(t, err)

	log := &debugLines{}
	b := actiongraph.NewBuilder(descriptions.Builtin(), log, actiongraph.Options{})
	for _, target := range []string{"//a:one", "//a:one", "//a:two"} {
		_, err := b.Build(context.Background(), g, []domain.BuildTarget{domain.MustBuildTarget(target)})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"created 1 no-op rules",
		"created 0 no-op rules",
		"created 1 no-op rules",
	}, log.matching("created "))
}
