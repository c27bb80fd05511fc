// Package app implements the application layer for kiln.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/actiongraph"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
)

// Metrics records build metrics and can export them as a Prometheus textfile.
type Metrics interface {
	ports.Metrics
	WriteTextfile(path string) error
}

// WatcherFactory creates a file watcher for watch mode.
type WatcherFactory func() (ports.Watcher, error)

// Deps are the collaborators of an App.
type Deps struct {
	Loader      ports.ConfigLoader
	Codec       ports.GraphCodec
	Transformer ports.Transformer
	Executor    ports.StepExecutor
	Hasher      ports.FileHasher
	Packer      ports.ArtifactPacker
	Logger      ports.Logger
	Metrics     Metrics
	NewWatcher  WatcherFactory
}

// App represents the main application logic.
type App struct {
	deps Deps

	stdout      io.Writer
	stderr      io.Writer
	teaOptions  []tea.ProgramOption
	dialOptions []grpc.DialOption

	mu       sync.Mutex
	graphs   *actiongraph.Builder
	graphOpt actiongraph.Options
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{deps: deps, stdout: os.Stdout, stderr: os.Stderr}
}

// WithOutput sets the streams for command output and renderers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithDialOptions adds gRPC options used when connecting to a remote cache.
func (a *App) WithDialOptions(opts ...grpc.DialOption) *App {
	a.dialOptions = append(a.dialOptions, opts...)
	return a
}

// workspace loads the workspace found from dir, or from the working directory.
func (a *App) workspace(dir string) (*domain.Workspace, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
		}
		dir = cwd
	}
	ws, err := a.deps.Loader.LoadWorkspace(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return ws, nil
}

// actionGraph transforms the closure of targets, reusing the builder, and so the cached
// action graph, for as long as the settings that shape it stay the same.
func (a *App) actionGraph(ctx context.Context, s domain.Settings, graph *domain.TargetGraph, targets []domain.BuildTarget) (*domain.ActionGraph, error) {
	opts := actiongraph.Options{
		Parallel:    s.ParallelActionGraph,
		Parallelism: s.Concurrency,
		Check:       s.CheckActionGraphs,
	}
	a.mu.Lock()
	if a.graphs == nil || a.graphOpt != opts {
		a.graphs = actiongraph.NewBuilder(a.deps.Transformer, a.deps.Logger, opts)
		a.graphOpt = opts
	}
	b := a.graphs
	a.mu.Unlock()
	return b.Build(ctx, graph, targets)
}
