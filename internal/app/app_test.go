package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/codec"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/descriptions"
	"go.uber.org/mock/gomock"
)

const buildfile = `
rules:
  base:
    type: genrule
    srcs: ["base.txt"]
    cmd: cat $SRCS > $OUT
    out: out.txt
  hello:
    type: genrule
    srcs: ["//pkg:base"]
    cmd: cat $SRCS > $OUT && echo hello >> $OUT
    out: out.txt
  other:
    type: genrule
    srcs: []
    cmd: echo other > $OUT
    out: out.txt
  broken:
    type: genrule
    srcs: []
    cmd: exit 3
    out: out.txt
`

type fixture struct {
	root   string
	app    *app.App
	logger *mocks.MockLogger
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newFixture(t *testing.T, workfile string, newWatcher app.WatcherFactory) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, domain.WorkFileName, workfile)
	writeFile(t, root, "pkg/kiln.yaml", buildfile)
	writeFile(t, root, "pkg/base.txt", "base\n")

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	walker := fs.NewWalker()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	a := app.New(app.Deps{
		Loader:      config.NewLoader(logger, config.NewOSFS(), walker, fs.NewResolver()),
		Codec:       codec.New(),
		Transformer: descriptions.Builtin(),
		Executor:    shell.NewExecutor(logger, shell.Options{}),
		Hasher:      fs.NewHasher(walker),
		Packer:      cas.NewArchiver(),
		Logger:      logger,
		Metrics:     metrics.NewRecorder(),
		NewWatcher:  newWatcher,
	}).WithOutput(stdout, stderr)

	return &fixture{root: root, app: a, logger: logger, stdout: stdout, stderr: stderr}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(t, os.WriteFile(p, []byte(content), domain.FilePerm))
}

func (f *fixture) build(opts app.BuildOptions) error {
	opts.Dir = f.root
	opts.OutputMode = "linear"
	return f.app.Build(context.Background(), opts)
}

func (f *fixture) outputFile(target string) string {
	return filepath.Join(f.root, domain.OutputDir(domain.MustBuildTarget(target)), "out.txt")
}

func (f *fixture) output(t *testing.T, target string) string {
	t.Helper()
	data, err := os.ReadFile(f.outputFile(target))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, rel))
	return err == nil
}

func readReport(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func resultType(doc map[string]any, target string) any {
	results, _ := doc["results"].(map[string]any)
	entry, _ := results[target].(map[string]any)
	return entry["type"]
}

func TestApp_Build(t *testing.T) {
	f := newFixture(t, "aliases:\n  greet: //pkg:hello\n", nil)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	err := f.build(app.BuildOptions{Targets: []string{"greet"}, BuildReport: reportPath, ShowOutput: true})
	require.NoError(t, err)
	assert.Equal(t, "base\nhello\n", f.output(t, "//pkg:hello"))

	doc := readReport(t, reportPath)
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, "BUILT_LOCALLY", resultType(doc, "//pkg:hello"))
	assert.NotEmpty(t, doc["buildId"])

	wantLine := "//pkg:hello " + filepath.ToSlash(filepath.Join(domain.OutputDir(domain.MustBuildTarget("//pkg:hello")), "out.txt"))
	assert.Contains(t, f.stdout.String(), wantLine)

	t.Run("Unchanged rebuild matches the rule key", func(t *testing.T) {
		require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:hello"}, BuildReport: reportPath}))
		assert.Equal(t, "MATCHING_RULE_KEY", resultType(readReport(t, reportPath), "//pkg:hello"))
	})

	t.Run("No cache builds from scratch", func(t *testing.T) {
		require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:hello"}, BuildReport: reportPath, NoCache: true}))
		assert.Equal(t, "BUILT_LOCALLY", resultType(readReport(t, reportPath), "//pkg:hello"))
	})
}

func TestApp_Build_Failure(t *testing.T) {
	f := newFixture(t, "", nil)
	f.logger.EXPECT().Error(gomock.Any()).MinTimes(1)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	err := f.build(app.BuildOptions{Targets: []string{"//pkg:broken", "//pkg:other"}, KeepGoing: true, BuildReport: reportPath})
	require.ErrorIs(t, err, domain.ErrBuildFailed)

	doc := readReport(t, reportPath)
	assert.Equal(t, false, doc["success"])
	assert.Contains(t, doc["failures"], "//pkg:broken")
	assert.Equal(t, "BUILT_LOCALLY", resultType(doc, "//pkg:other"))
}

func TestApp_Build_NoTargets(t *testing.T) {
	var aliases strings.Builder
	aliases.WriteString("aliases:\n")
	for i := 12; i >= 1; i-- {
		fmt.Fprintf(&aliases, "  a%02d: //pkg:hello\n", i)
	}

	tests := []struct {
		name     string
		workfile string
		want     string
	}{
		{
			name:     "Without aliases",
			workfile: "",
			want:     "Must specify at least one build target.\n",
		},
		{
			name:     "Suggests the first aliases",
			workfile: aliases.String(),
			want: "Must specify at least one build target.\n" +
				"Try building one of the following targets:\n" +
				"a01 a02 a03 a04 a05 a06 a07 a08 a09 a10\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.workfile, nil)
			err := f.build(app.BuildOptions{})
			require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
			assert.Equal(t, tt.want, f.stderr.String())
		})
	}
}

func TestApp_Build_TargetErrors(t *testing.T) {
	tests := []struct {
		name string
		opts app.BuildOptions
		want error
	}{
		{name: "Unknown alias", opts: app.BuildOptions{Targets: []string{"nope"}}, want: domain.ErrUnknownAlias},
		{name: "Unknown target", opts: app.BuildOptions{Targets: []string{"//pkg:nope"}}, want: domain.ErrTargetNotFound},
		{name: "Just build outside the closure", opts: app.BuildOptions{Targets: []string{"//pkg:hello"}, JustBuild: "//pkg:other"}, want: domain.ErrTargetNotFound},
		{name: "Invalid mode", opts: app.BuildOptions{Targets: []string{"//pkg:hello"}, Mode: "sideways"}, want: domain.ErrInvalidBuildMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "", nil)
			err := f.build(tt.opts)
			require.ErrorContains(t, err, tt.want.Error())
		})
	}
}

func TestApp_Build_JustBuild(t *testing.T) {
	f := newFixture(t, "", nil)

	require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:hello"}, JustBuild: "//pkg:base"}))
	assert.Equal(t, "base\n", f.output(t, "//pkg:base"))
	assert.NoFileExists(t, f.outputFile("//pkg:hello"))
}

func TestApp_Build_StateDump(t *testing.T) {
	f := newFixture(t, "", nil)
	dump := filepath.Join(t.TempDir(), "state.bin")

	require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:hello"}, StateDump: dump}))
	assert.FileExists(t, dump)
	assert.NoFileExists(t, f.outputFile("//pkg:hello"), "dumping does not build")

	// The dump replaces the build files.
	require.NoError(t, os.Remove(filepath.Join(f.root, "pkg", "kiln.yaml")))
	require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:hello"}, StateDump: dump}))
	assert.Equal(t, "base\nhello\n", f.output(t, "//pkg:hello"))
}

func TestApp_Build_MetricsTextfile(t *testing.T) {
	f := newFixture(t, "", nil)
	out := filepath.Join(t.TempDir(), "kiln.prom")

	require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:other"}, MetricsOut: out}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BUILT_LOCALLY")
}

func TestApp_Clean(t *testing.T) {
	outDir := filepath.Join(domain.KilnDirName, domain.OutDirName)

	tests := []struct {
		name string
		opts app.CleanOptions
		gone []string
		kept []string
	}{
		{
			name: "Outputs and records",
			gone: []string{outDir, domain.DefaultRecordsPath()},
			kept: []string{domain.DefaultCachePath()},
		},
		{
			name: "Cache only",
			opts: app.CleanOptions{Cache: true},
			gone: []string{domain.DefaultCachePath()},
			kept: []string{outDir, domain.DefaultRecordsPath()},
		},
		{
			name: "Everything",
			opts: app.CleanOptions{All: true},
			gone: []string{domain.DefaultKilnPath()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "", nil)
			require.NoError(t, f.build(app.BuildOptions{Targets: []string{"//pkg:hello"}}))

			tt.opts.Dir = f.root
			require.NoError(t, f.app.Clean(context.Background(), tt.opts))
			for _, p := range tt.gone {
				assert.False(t, f.exists(p), "%s should be removed", p)
			}
			for _, p := range tt.kept {
				assert.True(t, f.exists(p), "%s should be kept", p)
			}
		})
	}
}

func TestApp_Targets(t *testing.T) {
	f := newFixture(t, "", nil)

	require.NoError(t, f.app.Targets(context.Background(), app.TargetsOptions{Dir: f.root}))
	assert.Equal(t, "//pkg:base genrule\n//pkg:broken genrule\n//pkg:hello genrule\n//pkg:other genrule\n", f.stdout.String())

	f.stdout.Reset()
	require.NoError(t, f.app.Targets(context.Background(), app.TargetsOptions{Dir: f.root, ShowRuleKey: true}))
	lines := strings.Split(strings.TrimSpace(f.stdout.String()), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		_, err := domain.ParseRuleKey(fields[2])
		require.NoError(t, err, line)
	}
}

// chanWatcher delivers the events sent on its channel.
type chanWatcher struct {
	events chan ports.WatchEvent
}

func (w *chanWatcher) Start(context.Context, string) error { return nil }
func (w *chanWatcher) Stop() error                         { return nil }

func (w *chanWatcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range w.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func TestApp_Build_Watch(t *testing.T) {
	w := &chanWatcher{events: make(chan ports.WatchEvent, 1)}
	f := newFixture(t, "", func() (ports.Watcher, error) { return w, nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.app.Build(ctx, app.BuildOptions{Dir: f.root, Targets: []string{"//pkg:hello"}, Watch: true})
	}()

	read := func() string {
		data, _ := os.ReadFile(f.outputFile("//pkg:hello"))
		return string(data)
	}
	require.Eventually(t, func() bool { return read() == "base\nhello\n" }, 10*time.Second, 10*time.Millisecond)

	writeFile(t, f.root, "pkg/base.txt", "changed\n")
	w.events <- ports.WatchEvent{Path: filepath.Join(f.root, "pkg", "base.txt"), Kind: ports.Modified}
	require.Eventually(t, func() bool { return read() == "changed\nhello\n" }, 10*time.Second, 10*time.Millisecond)

	cancel()
	close(w.events)
	require.NoError(t, <-done)
}
