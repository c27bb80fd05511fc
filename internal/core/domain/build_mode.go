package domain

import "go.trai.ch/zerr"

// BuildMode selects how much of a dependency closure is materialized locally.
type BuildMode uint8

const (
	// ModeShallow builds requested targets and extracts only the cached artifacts that a
	// local build or a requested target needs.
	ModeShallow BuildMode = iota
	// ModeDeep materializes every transitive dependency of the requested targets.
	ModeDeep
	// ModePopulate builds only targets whose artifacts are cached, reporting the rest
	// as unpopulated.
	ModePopulate
)

// ParseBuildMode resolves a mode name.
func ParseBuildMode(s string) (BuildMode, error) {
	switch s {
	case "", "shallow":
		return ModeShallow, nil
	case "deep":
		return ModeDeep, nil
	case "populate", "populate_from_remote_cache":
		return ModePopulate, nil
	default:
		return ModeShallow, zerr.With(ErrInvalidBuildMode, "mode", s)
	}
}

// String returns the mode name.
func (m BuildMode) String() string {
	switch m {
	case ModeDeep:
		return "deep"
	case ModePopulate:
		return "populate"
	default:
		return "shallow"
	}
}
