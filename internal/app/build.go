package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/tui"       //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/buildengine"
	"go.trai.ch/kiln/internal/engine/report"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// maxSuggestedAliases bounds the aliases listed when no target was given.
const maxSuggestedAliases = 10

// BuildOptions configuration for the Build method. Zero values keep the workspace
// settings.
type BuildOptions struct {
	// Dir is where the workspace is searched from. Empty means the working directory.
	Dir string
	Targets     []string
	Mode        string
	KeepGoing   bool
	NoCache     bool
	Concurrency int
	StepTimeout time.Duration
	HardCancel  bool
	// JustBuild restricts the build to one target of the requested closure.
	JustBuild   string
	BuildReport string
	ShowOutput  bool
	ShowRuleKey bool
	// StateDump is written when missing and read instead of the build files otherwise.
	StateDump  string
	MetricsOut string
	OutputMode string
	Watch      bool
}

// settings applies the options to the workspace defaults.
func (o BuildOptions) settings(s domain.Settings) (domain.Settings, error) {
	if o.Mode != "" {
		mode, err := domain.ParseBuildMode(o.Mode)
		if err != nil {
			return s, err
		}
		s.Mode = mode
	}
	if o.KeepGoing {
		s.KeepGoing = true
	}
	if o.Concurrency > 0 {
		s.Concurrency = o.Concurrency
	}
	if o.StepTimeout > 0 {
		s.StepTimeout = o.StepTimeout
	}
	if o.NoCache {
		s.Cache.Disabled = true
	}
	return s, nil
}

// Build builds the requested targets. It returns domain.ErrBuildFailed when a target
// that counts towards the exit status did not succeed, after reporting why.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	ws, err := a.workspace(opts.Dir)
	if err != nil {
		return err
	}
	if len(opts.Targets) == 0 {
		a.suggestTargets(ws)
		return domain.ErrNoTargetsSpecified
	}
	settings, err := opts.settings(ws.Settings)
	if err != nil {
		return err
	}

	graph, dumped, err := a.targetGraph(ws, opts.StateDump)
	if err != nil || dumped {
		return err
	}

	sess, err := a.openSession(ws, settings, opts.NoCache)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			a.deps.Logger.Warn(err.Error())
		}
	}()

	if opts.Watch {
		return a.watch(ctx, sess, graph, opts)
	}
	return a.buildOnce(ctx, sess, graph, opts)
}

func (a *App) suggestTargets(ws *domain.Workspace) {
	_, _ = fmt.Fprintln(a.stderr, "Must specify at least one build target.")
	if len(ws.Aliases) == 0 {
		return
	}
	aliases := slices.Sorted(maps.Keys(ws.Aliases))
	_, _ = fmt.Fprintln(a.stderr, "Try building one of the following targets:")
	_, _ = fmt.Fprintln(a.stderr, strings.Join(aliases[:min(len(aliases), maxSuggestedAliases)], " "))
}

// targetGraph returns the graph to build. With a state dump path it either writes the
// parsed graph there and reports dumped, or reads the graph back from it.
func (a *App) targetGraph(ws *domain.Workspace, dump string) (graph *domain.TargetGraph, dumped bool, err error) {
	if dump == "" {
		graph, err = a.deps.Loader.LoadGraph(ws)
		return graph, false, err
	}

	f, err := os.Open(dump) //nolint:gosec // Path is provided by the user
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		graph, err = a.deps.Codec.Decode(f)
		if err != nil {
			return nil, false, zerr.With(zerr.Wrap(err, domain.ErrStateDumpFailed.Error()), "path", dump)
		}
		a.deps.Logger.Debug(fmt.Sprintf("loaded %d targets from %s", graph.Len(), dump))
		return graph, false, nil
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrStateDumpFailed.Error()), "path", dump)
	}

	graph, err = a.deps.Loader.LoadGraph(ws)
	if err != nil {
		return nil, false, err
	}
	if err := a.writeStateDump(dump, graph); err != nil {
		return nil, false, err
	}
	a.deps.Logger.Info(fmt.Sprintf("wrote %d targets to %s", graph.Len(), dump))
	return graph, true, nil
}

func (a *App) writeStateDump(path string, graph *domain.TargetGraph) error {
	f, err := os.Create(path) //nolint:gosec // Path is provided by the user
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateDumpFailed.Error()), "path", path)
	}
	if err := a.deps.Codec.Encode(f, graph); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return zerr.With(zerr.Wrap(err, domain.ErrStateDumpFailed.Error()), "path", path)
	}
	return f.Close()
}

// resolveTargets maps command line arguments to build targets, expanding aliases.
func resolveTargets(ws *domain.Workspace, args []string) ([]domain.BuildTarget, error) {
	targets := make([]domain.BuildTarget, 0, len(args))
	for _, arg := range args {
		t, err := resolveTarget(ws, arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func resolveTarget(ws *domain.Workspace, arg string) (domain.BuildTarget, error) {
	if ref, ok := ws.Aliases[arg]; ok {
		arg = ref
	} else if !strings.Contains(arg, ":") {
		return domain.BuildTarget{}, zerr.With(domain.ErrUnknownAlias, "alias", arg)
	}
	return domain.ParseBuildTarget(arg)
}

// buildOnce runs one build of graph within sess and reports its outcome.
func (a *App) buildOnce(ctx context.Context, sess *session, graph *domain.TargetGraph, opts BuildOptions) error {
	requested, err := resolveTargets(sess.ws, opts.Targets)
	if err != nil {
		return err
	}
	ag, err := a.actionGraph(ctx, sess.settings, graph, requested)
	if err != nil {
		return err
	}
	if opts.JustBuild != "" {
		requested, err = justBuild(sess.ws, ag, requested, opts.JustBuild)
		if err != nil {
			return err
		}
	}

	buildID := uuid.NewString()
	if l, ok := a.deps.Logger.(interface{ SetBuildID(string) }); ok {
		l.SetBuildID(buildID)
	}

	renderer, err := a.renderer(ctx, opts.OutputMode, opts.Watch)
	if err != nil {
		return err
	}
	tracer, shutdown := telemetry.Setup("kiln", renderer)
	defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()

	engine := buildengine.New(buildengine.Deps{
		Cache:    sess.cache,
		Packer:   a.deps.Packer,
		Records:  sess.records,
		Executor: a.deps.Executor,
		Hasher:   a.deps.Hasher,
		Tracer:   tracer,
		Logger:   a.deps.Logger,
		Metrics:  a.deps.Metrics,
	}, buildengine.Options{
		Root:        sess.ws.Root,
		KeySeed:     sess.settings.KeySeed,
		Mode:        sess.settings.Mode,
		KeepGoing:   sess.settings.KeepGoing,
		Concurrency: sess.settings.Concurrency,
		StepTimeout: sess.settings.StepTimeout,
		HardCancel:  opts.HardCancel,
	})

	var results []*domain.BuildResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})
	g.Go(func() error {
		defer func() { _ = renderer.Stop() }()
		var err error
		results, err = engine.Build(gctx, ag, requested)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return a.finish(report.New(buildID, sess.settings.Mode, requested, results), opts)
}

// justBuild narrows the build to one target, which must be part of the requested closure.
func justBuild(ws *domain.Workspace, ag *domain.ActionGraph, requested []domain.BuildTarget, arg string) ([]domain.BuildTarget, error) {
	target, err := resolveTarget(ws, arg)
	if err != nil {
		return nil, err
	}
	closure, err := ag.Closure(requested)
	if err != nil {
		return nil, err
	}
	for _, r := range closure {
		if r.Target() == target {
			return []domain.BuildTarget{target}, nil
		}
	}
	return nil, zerr.With(zerr.With(domain.ErrTargetNotFound, "target", target.String()), "reason", "not in the requested closure")
}

func (a *App) renderer(ctx context.Context, outputMode string, watch bool) (ports.Renderer, error) {
	user, err := detector.ParseMode(outputMode)
	if err != nil {
		return nil, err
	}
	mode := detector.ResolveMode(detector.DetectEnvironment(), user)
	// Watch mode keeps the terminal for the rebuild log.
	if mode == detector.ModeTUI && !watch {
		model := tui.NewModel(a.stderr)
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		return tui.NewRenderer(model, optsTea...), nil
	}
	return linear.NewRenderer(a.stdout, a.stderr), nil
}

// finish surfaces the report: failures, summary, requested output and rule key lines,
// the JSON report and the metrics textfile.
func (a *App) finish(rep *report.Report, opts BuildOptions) error {
	for _, f := range rep.Failures() {
		if f.Status != domain.StatusFailure {
			continue
		}
		err := f.Err
		if err == nil {
			err = errors.New(f.Cause)
		}
		a.deps.Logger.Error(zerr.With(err, "target", f.Target.String()))
	}
	a.deps.Logger.Info(rep.Summary())

	if opts.ShowOutput {
		for _, line := range rep.OutputLines() {
			_, _ = fmt.Fprintln(a.stdout, line)
		}
	}
	if opts.ShowRuleKey {
		for _, line := range rep.RuleKeyLines() {
			_, _ = fmt.Fprintln(a.stdout, line)
		}
	}

	var errs error
	if opts.BuildReport != "" {
		errs = errors.Join(errs, writeReport(rep, opts.BuildReport))
	}
	if opts.MetricsOut != "" && a.deps.Metrics != nil {
		errs = errors.Join(errs, a.deps.Metrics.WriteTextfile(opts.MetricsOut))
	}
	if errs != nil {
		return errs
	}
	return rep.Err()
}

func writeReport(rep *report.Report, path string) error {
	f, err := os.Create(path) //nolint:gosec // Path is provided by the user
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write build report"), "path", path)
	}
	if err := rep.WriteJSON(f); err != nil {
		_ = f.Close()
		return zerr.With(zerr.Wrap(err, "failed to write build report"), "path", path)
	}
	return f.Close()
}
