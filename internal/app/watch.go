package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.trai.ch/kiln/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// watch builds once and then rebuilds after every debounced batch of changes until ctx
// ends. Changed files are re-hashed and the target graph is reloaded; the action graph
// is reused whenever the reloaded graph has the same fingerprint.
func (a *App) watch(ctx context.Context, sess *session, graph *domain.TargetGraph, opts BuildOptions) error {
	if a.deps.NewWatcher == nil {
		return zerr.With(domain.ErrWatchFailed, "reason", "no watcher available")
	}
	w, err := a.deps.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}

	a.report(a.buildOnce(ctx, sess, graph, opts))
	a.deps.Logger.Info("watching for changes")

	return watcher.Run(ctx, w, sess.ws.Root, watcher.DefaultWindow, func(ctx context.Context, paths []string) {
		abs := make([]string, len(paths))
		for i, p := range paths {
			abs[i] = filepath.Join(sess.ws.Root, filepath.FromSlash(p))
		}
		a.deps.Hasher.Invalidate(abs...)
		a.deps.Logger.Info(fmt.Sprintf("%d file(s) changed, rebuilding", len(paths)))

		reloaded, err := a.reload(sess)
		if err != nil {
			a.deps.Logger.Error(err)
			return
		}
		a.report(a.buildOnce(ctx, sess, reloaded, opts))
	})
}

// reload re-discovers the build files of the workspace and parses them again.
func (a *App) reload(sess *session) (*domain.TargetGraph, error) {
	ws, err := a.deps.Loader.LoadWorkspace(sess.ws.Root)
	if err != nil {
		return nil, err
	}
	sess.ws.BuildFiles = ws.BuildFiles
	sess.ws.Aliases = ws.Aliases
	return a.deps.Loader.LoadGraph(sess.ws)
}

// report logs the error of a watched build. Failed builds were already reported.
func (a *App) report(err error) {
	if err != nil && !errors.Is(err, domain.ErrBuildFailed) {
		a.deps.Logger.Error(err)
	}
}
