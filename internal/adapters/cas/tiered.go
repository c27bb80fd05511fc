package cas

import (
	"context"
	"errors"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// TieredCache consults its tiers in order. A hit in a later tier is copied back into the
// earlier ones. Stores go to every tier.
type TieredCache struct {
	tiers []ports.ArtifactCache
}

// NewTieredCache combines tiers, fastest first.
func NewTieredCache(tiers ...ports.ArtifactCache) *TieredCache {
	return &TieredCache{tiers: tiers}
}

// Name joins the tier names.
func (c *TieredCache) Name() string {
	names := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		names[i] = t.Name()
	}
	return strings.Join(names, "+")
}

// Fetch returns the first hit. Errors from individual tiers are remembered and reported
// only when no tier hits.
func (c *TieredCache) Fetch(ctx context.Context, key domain.RuleKey, dst string) domain.CacheResult {
	var errs []error
	var lastErr domain.CacheResult
	for i, tier := range c.tiers {
		res := tier.Fetch(ctx, key, dst)
		switch res.Type {
		case domain.CacheHit:
			for _, earlier := range c.tiers[:i] {
				// Backfilling is best effort; a failure only costs a later refetch.
				_ = earlier.Store(ctx, key, dst)
			}
			return res
		case domain.CacheError:
			errs = append(errs, res.Err)
			lastErr = res
		}
	}
	if len(errs) > 0 {
		return domain.CacheErr(lastErr.Source, errors.Join(errs...))
	}
	return domain.Miss(c.Name())
}

// Store writes the artifact to every tier. Read-only tiers are skipped.
func (c *TieredCache) Store(ctx context.Context, key domain.RuleKey, src string) error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Store(ctx, key, src); err != nil && !errors.Is(err, domain.ErrCacheReadOnly) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every tier.
func (c *TieredCache) Close() error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Close())
	}
	return errors.Join(errs...)
}
