package app

import (
	"errors"
	"path/filepath"

	"go.trai.ch/kiln/internal/adapters/cas"     //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/records" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/remote"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// session holds the stores shared by the builds of one invocation. Watch mode runs
// every rebuild within the same session.
type session struct {
	ws       *domain.Workspace
	settings domain.Settings
	cache    ports.ArtifactCache
	// records is nil when builds must not trust or update what is on disk.
	records ports.BuildRecordStore
}

func (a *App) openSession(ws *domain.Workspace, settings domain.Settings, noCache bool) (*session, error) {
	cache, err := a.openCache(settings.Cache)
	if err != nil {
		return nil, err
	}
	s := &session{ws: ws, settings: settings, cache: cache}
	if noCache {
		return s, nil
	}

	store, err := records.Open(records.Config{
		Path:   filepath.Join(ws.Root, domain.DefaultRecordsPath()),
		Logger: a.deps.Logger,
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}
	s.records = store
	return s, nil
}

// openCache assembles the artifact cache tiers: the local directory first, then the
// remote cache server when one is configured.
func (a *App) openCache(cfg domain.CacheSettings) (ports.ArtifactCache, error) {
	if cfg.Disabled {
		return cas.NoopCache{}, nil
	}
	tiers := []ports.ArtifactCache{cas.NewDirCache(cfg.Dir, cfg.ReadOnly)}
	if cfg.Remote != "" {
		client, err := remote.Dial(cfg.Remote, cfg.RemoteReadOnly, a.dialOptions...)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, client)
	}
	return cas.NewTieredCache(tiers...), nil
}

func (s *session) Close() error {
	var errs error
	if s.records != nil {
		errs = errors.Join(errs, s.records.Close())
	}
	return errors.Join(errs, s.cache.Close())
}
