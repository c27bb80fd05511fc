package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ArtifactCache defines the interface for a store of build artifacts addressed by rule key.
//
//go:generate mockgen -source=artifact_cache.go -destination=mocks/mock_artifact_cache.go -package=mocks
type ArtifactCache interface {
	// Fetch copies the artifact stored under key to the file dst.
	// Failures are reported in the result, never as a panic or a separate error.
	Fetch(ctx context.Context, key domain.RuleKey, dst string) domain.CacheResult

	// Store uploads the artifact file src under key.
	Store(ctx context.Context, key domain.RuleKey, src string) error

	// Name identifies the cache in results and logs.
	Name() string

	// Close releases connections and handles held by the cache.
	Close() error
}

// ArtifactPacker defines the interface for turning rule outputs into artifact files.
type ArtifactPacker interface {
	// Pack writes the files under the root-relative paths into the artifact dst,
	// together with the given metadata.
	Pack(root string, paths []string, meta *domain.ArtifactMeta, dst string) error

	// Unpack extracts the artifact src under root. Every entry must lie inside the
	// root-relative directory allowed.
	Unpack(src, root, allowed string) (*domain.ArtifactMeta, error)
}
