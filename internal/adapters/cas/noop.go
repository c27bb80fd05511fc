package cas

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// NoopCache misses every lookup and discards every store.
type NoopCache struct{}

// Name identifies the cache.
func (NoopCache) Name() string { return "none" }

// Fetch always misses.
func (NoopCache) Fetch(context.Context, domain.RuleKey, string) domain.CacheResult {
	return domain.Miss("none")
}

// Store discards the artifact.
func (NoopCache) Store(context.Context, domain.RuleKey, string) error { return nil }

// Close is a no-op.
func (NoopCache) Close() error { return nil }
