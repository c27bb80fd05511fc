package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Dir   string
	Cache bool
	All   bool
}

// Clean removes build outputs and records, the local artifact cache, or all workspace
// state, based on the provided options.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	ws, err := a.workspace(options.Dir)
	if err != nil {
		return err
	}
	var errs error

	remove := func(path string, name string) {
		a.deps.Logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.deps.Logger.Info(fmt.Sprintf("removed %s", name))
	}

	switch {
	case options.All:
		remove(filepath.Join(ws.Root, domain.DefaultKilnPath()), "workspace state")
	case options.Cache:
		remove(ws.Settings.Cache.Dir, "artifact cache")
	default:
		remove(filepath.Join(ws.Root, domain.KilnDirName, domain.OutDirName), "build outputs")
		remove(filepath.Join(ws.Root, domain.KilnDirName, domain.ScratchDirName), "scratch directories")
		remove(filepath.Join(ws.Root, domain.DefaultRecordsPath()), "build records")
	}

	return errs
}
