package fs

import (
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands the root-relative patterns and returns the matches as sorted,
// deduplicated, slash-separated paths relative to root. A pattern without matches is
// an error.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	var result []string
	for _, input := range inputs {
		pattern := filepath.Join(root, filepath.FromSlash(input))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "path", input)
		}
		if len(matches) == 0 {
			return nil, zerr.With(domain.ErrInputNotFound, "path", input)
		}
		for _, match := range matches {
			rel, err := filepath.Rel(root, match)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrOutputPathOutsideRoot.Error()), "path", match)
			}
			result = append(result, filepath.ToSlash(rel))
		}
	}
	slices.Sort(result)
	return slices.Compact(result), nil
}
