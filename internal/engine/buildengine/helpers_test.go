package buildengine_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/records"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/descriptions"
	"go.trai.ch/kiln/internal/engine/buildengine"
	"go.uber.org/mock/gomock"
)

// rule declares one target of a test graph.
type rule struct {
	target string
	typ    string
	args   map[string]any
	deps   []string
}

func genrule(target, cmd string, srcs []any, deps ...string) rule {
	return rule{target: target, typ: "genrule", args: map[string]any{"cmd": cmd, "out": "out.txt", "srcs": srcs}, deps: deps}
}

// graphOf creates the action graph of rules, which must be listed dependencies first.
func graphOf(t *testing.T, rules ...rule) *domain.ActionGraph {
	t.Helper()
	registry := descriptions.Builtin()
	created := make(map[domain.BuildTarget]*domain.Rule)
	all := make([]*domain.Rule, 0, len(rules))
	for _, r := range rules {
		deps := make([]domain.BuildTarget, len(r.deps))
		depRules := make([]*domain.Rule, len(r.deps))
		for i, d := range r.deps {
			deps[i] = domain.MustBuildTarget(d)
			depRules[i] = created[deps[i]]
			require.NotNil(t, depRules[i], "dependency %s must be declared first", d)
		}
		n, err := domain.NewTargetNode(domain.MustBuildTarget(r.target), r.typ, r.args, deps)
		require.NoError(t, err)
		built, err := registry.Transform(context.Background(), n, depRules)
		require.NoError(t, err)
		created[built.Target()] = built
		all = append(all, built)
	}
	return domain.NewActionGraph(all)
}

// chain is the graph //pkg:a -> //pkg:b -> //pkg:c with c reading pkg/c.txt.
func chain(t *testing.T) *domain.ActionGraph {
	t.Helper()
	return graphOf(t,
		genrule("//pkg:c", "cat $SRCS > $OUT", []any{"pkg/c.txt"}),
		genrule("//pkg:b", "cat $SRCS > $OUT && echo b >> $OUT", []any{"//pkg:c"}, "//pkg:c"),
		genrule("//pkg:a", "cat $SRCS > $OUT && echo a >> $OUT", []any{"//pkg:b"}, "//pkg:b"),
	)
}

// countingExecutor runs steps through the shell executor and remembers the scratch
// directory of every command it ran.
type countingExecutor struct {
	inner ports.StepExecutor

	mu   sync.Mutex
	dirs []string
}

func (c *countingExecutor) Execute(ctx context.Context, step *domain.PreparedStep, stdout, stderr io.Writer) error {
	if step.Kind == domain.StepExec {
		c.mu.Lock()
		c.dirs = append(c.dirs, step.Dir)
		c.mu.Unlock()
	}
	return c.inner.Execute(ctx, step, stdout, stderr)
}

type harness struct {
	root    string
	cache   *cas.DirCache
	records ports.BuildRecordStore
	exec    *countingExecutor
	logger  *mocks.MockLogger
	metrics *mocks.MockMetrics
	hasher  *fs.Hasher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().RecordResult(gomock.Any()).AnyTimes()
	metrics.EXPECT().RecordCacheLookup(gomock.Any()).AnyTimes()
	metrics.EXPECT().RecordSteps(gomock.Any(), gomock.Any()).AnyTimes()

	store, err := records.Open(records.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	root := t.TempDir()
	return &harness{
		root:    root,
		cache:   cas.NewDirCache(filepath.Join(root, domain.DefaultCachePath()), false),
		records: store,
		exec:    &countingExecutor{inner: shell.NewExecutor(logger, shell.Options{})},
		logger:  logger,
		metrics: metrics,
		hasher:  fs.NewHasher(fs.NewWalker()),
	}
}

func (h *harness) deps(executor ports.StepExecutor) buildengine.Deps {
	if executor == nil {
		executor = h.exec
	}
	return buildengine.Deps{
		Cache:    h.cache,
		Packer:   cas.NewArchiver(),
		Records:  h.records,
		Executor: executor,
		Hasher:   h.hasher,
		Tracer:   telemetry.NewNoOpTracer(),
		Logger:   h.logger,
		Metrics:  h.metrics,
	}
}

func (h *harness) options(mode domain.BuildMode) buildengine.Options {
	return buildengine.Options{Root: h.root, KeySeed: "test", Mode: mode, Concurrency: 4}
}

// build runs the engine and indexes the results by target.
func (h *harness) build(t *testing.T, e *buildengine.Engine, graph *domain.ActionGraph, targets ...string) map[string]*domain.BuildResult {
	t.Helper()
	ts := make([]domain.BuildTarget, len(targets))
	for i, s := range targets {
		ts[i] = domain.MustBuildTarget(s)
	}
	results, err := e.Build(context.Background(), graph, ts)
	require.NoError(t, err)
	byTarget := make(map[string]*domain.BuildResult, len(results))
	for _, r := range results {
		byTarget[r.Target.String()] = r
	}
	return byTarget
}

// built returns, in execution order, the targets whose commands ran since the last call.
func (h *harness) built(graph *domain.ActionGraph) []string {
	h.exec.mu.Lock()
	defer h.exec.mu.Unlock()
	byDir := make(map[string]string)
	for _, t := range graph.Targets() {
		byDir[filepath.Join(h.root, domain.ScratchDir(t))] = t.String()
	}
	out := make([]string, 0, len(h.exec.dirs))
	for _, d := range h.exec.dirs {
		out = append(out, byDir[d])
	}
	h.exec.dirs = nil
	return out
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(t, os.WriteFile(p, []byte(content), domain.FilePerm))
	h.hasher.Invalidate(p)
}

func (h *harness) output(t *testing.T, target string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.root, domain.OutputDir(domain.MustBuildTarget(target)), "out.txt"))
	require.NoError(t, err)
	return string(data)
}

func (h *harness) outputExists(target string) bool {
	_, err := os.Stat(filepath.Join(h.root, domain.OutputDir(domain.MustBuildTarget(target))))
	return err == nil
}

func (h *harness) removeOutputs(t *testing.T) {
	t.Helper()
	require.NoError(t, os.RemoveAll(filepath.Join(h.root, domain.KilnDirName, domain.OutDirName)))
}

func outcomes(results map[string]*domain.BuildResult) map[string]string {
	out := make(map[string]string, len(results))
	for k, r := range results {
		out[k] = r.Outcome()
	}
	return out
}

// bareDeps returns engine dependencies without build records or cache, usable inside a
// synctest bubble.
func bareDeps(t *testing.T, executor ports.StepExecutor) buildengine.Deps {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().RecordResult(gomock.Any()).AnyTimes()
	metrics.EXPECT().RecordCacheLookup(gomock.Any()).AnyTimes()
	metrics.EXPECT().RecordSteps(gomock.Any(), gomock.Any()).AnyTimes()
	return buildengine.Deps{
		Cache:    cas.NoopCache{},
		Packer:   cas.NewArchiver(),
		Executor: executor,
		Hasher:   fs.NewHasher(fs.NewWalker()),
		Tracer:   telemetry.NewNoOpTracer(),
		Logger:   logger,
		Metrics:  metrics,
	}
}

// writeOut produces the single output of a prepared exec step.
func writeOut(step *domain.PreparedStep) error {
	return os.WriteFile(step.Env["OUT"], []byte(step.Dir+"\n"), domain.FilePerm)
}
