package app

import (
	"context"
	"net"
	"time"

	"go.trai.ch/kiln/internal/adapters/cas"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/remote" //nolint:depguard // Wired in app layer
	"go.trai.ch/zerr"
)

// ServeOptions configuration for the ServeCache method.
type ServeOptions struct {
	Listen string
	// Dir is the cache directory. Empty means the cache of the current workspace.
	Dir      string
	ReadOnly bool
	// IdleTimeout stops the server after a period without requests. Zero never stops.
	IdleTimeout time.Duration
}

// ServeCache serves a local artifact cache directory to remote builds until ctx ends.
func (a *App) ServeCache(ctx context.Context, opts ServeOptions) error {
	dir := opts.Dir
	if dir == "" {
		ws, err := a.workspace("")
		if err != nil {
			return err
		}
		dir = ws.Settings.Cache.Dir
	}

	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", opts.Listen)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", opts.Listen)
	}
	return a.serve(ctx, lis, dir, opts)
}

func (a *App) serve(ctx context.Context, lis net.Listener, dir string, opts ServeOptions) error {
	a.deps.Logger.Info("serving artifact cache " + dir + " on " + lis.Addr().String())
	server := remote.NewServer(cas.NewDirCache(dir, opts.ReadOnly), a.deps.Logger, remote.NewLifecycle(opts.IdleTimeout))
	return server.Serve(ctx, lis)
}
