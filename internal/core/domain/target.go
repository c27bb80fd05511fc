package domain

import (
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

var (
	ruleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.+=-]+$`)
	cellPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)
	flavorPattern   = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// BuildTarget identifies a buildable unit: a cell, a base path inside it, a short name
// and an ordered set of flavors. Two targets are equal when all four parts are equal,
// so BuildTarget can be used directly as a map key.
type BuildTarget struct {
	cell      symbol
	basePath  symbol
	shortName symbol
	flavors   symbol
}

// NewBuildTarget creates a target after validating its parts.
// Flavors are sorted and deduplicated.
func NewBuildTarget(cell, basePath, shortName string, flavors ...string) (BuildTarget, error) {
	if !cellPattern.MatchString(cell) {
		return BuildTarget{}, zerr.With(ErrInvalidTarget, "cell", cell)
	}
	basePath = strings.Trim(basePath, "/")
	if strings.Contains(basePath, "..") || strings.ContainsAny(basePath, ":#") {
		return BuildTarget{}, zerr.With(ErrInvalidTarget, "base_path", basePath)
	}
	if !ruleNamePattern.MatchString(shortName) {
		return BuildTarget{}, zerr.With(ErrInvalidRuleName, "name", shortName)
	}
	canonical, err := canonicalFlavors(flavors)
	if err != nil {
		return BuildTarget{}, err
	}
	return BuildTarget{
		cell:      intern(cell),
		basePath:  intern(basePath),
		shortName: intern(shortName),
		flavors:   intern(canonical),
	}, nil
}

// MustBuildTarget parses s and panics on error. It is intended for tests and constants.
func MustBuildTarget(s string) BuildTarget {
	t, err := ParseBuildTarget(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseBuildTarget parses the canonical form "cell//base/path:name#flavor1,flavor2".
func ParseBuildTarget(s string) (BuildTarget, error) {
	return ParseRelativeTarget(s, "", "")
}

// ParseRelativeTarget parses s, resolving ":name" against the given cell and base path
// and "//path:name" against the given cell.
func ParseRelativeTarget(s, cell, basePath string) (BuildTarget, error) {
	body, flavorPart, _ := strings.Cut(s, "#")
	var flavors []string
	if flavorPart != "" {
		flavors = strings.Split(flavorPart, ",")
	} else if strings.HasSuffix(s, "#") {
		return BuildTarget{}, zerr.With(ErrInvalidTarget, "target", s)
	}

	if strings.HasPrefix(body, ":") {
		return withInput(s)(NewBuildTarget(cell, basePath, body[1:], flavors...))
	}

	idx := strings.Index(body, "//")
	if idx < 0 {
		return BuildTarget{}, zerr.With(ErrInvalidTarget, "target", s)
	}
	targetCell := body[:idx]
	if idx == 0 {
		targetCell = cell
	}
	path, name, ok := strings.Cut(body[idx+2:], ":")
	if !ok {
		return BuildTarget{}, zerr.With(ErrInvalidTarget, "target", s)
	}
	return withInput(s)(NewBuildTarget(targetCell, path, name, flavors...))
}

func withInput(s string) func(BuildTarget, error) (BuildTarget, error) {
	return func(t BuildTarget, err error) (BuildTarget, error) {
		if err != nil {
			return BuildTarget{}, zerr.With(err, "target", s)
		}
		return t, nil
	}
}

func canonicalFlavors(flavors []string) (string, error) {
	if len(flavors) == 0 {
		return "", nil
	}
	set := make([]string, 0, len(flavors))
	for _, f := range flavors {
		f = strings.TrimSpace(f)
		if !flavorPattern.MatchString(f) {
			return "", zerr.With(ErrInvalidTarget, "flavor", f)
		}
		set = append(set, f)
	}
	slices.Sort(set)
	return strings.Join(slices.Compact(set), ","), nil
}

// Cell returns the cell name. The root cell is the empty string.
func (t BuildTarget) Cell() string {
	return t.cell.String()
}

// BasePath returns the slash-separated package path inside the cell.
func (t BuildTarget) BasePath() string {
	return t.basePath.String()
}

// ShortName returns the rule name inside the package.
func (t BuildTarget) ShortName() string {
	return t.shortName.String()
}

// Flavors returns the sorted flavor set.
func (t BuildTarget) Flavors() []string {
	if !t.HasFlavors() {
		return nil
	}
	return strings.Split(t.flavors.String(), ",")
}

// HasFlavors reports whether the target carries any flavor.
func (t BuildTarget) HasFlavors() bool {
	return t.flavors.String() != ""
}

// IsZero reports whether t is the zero value.
func (t BuildTarget) IsZero() bool {
	return t == BuildTarget{}
}

// WithFlavors returns a copy of t whose flavor set is the union of t's flavors and fs.
func (t BuildTarget) WithFlavors(fs ...string) (BuildTarget, error) {
	canonical, err := canonicalFlavors(append(t.Flavors(), fs...))
	if err != nil {
		return BuildTarget{}, err
	}
	t.flavors = intern(canonical)
	return t, nil
}

// WithoutFlavors returns the unflavored form of t.
func (t BuildTarget) WithoutFlavors() BuildTarget {
	t.flavors = symbol{}
	return t
}

// String returns the canonical textual form of the target.
func (t BuildTarget) String() string {
	if t.IsZero() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(t.Cell())
	sb.WriteString("//")
	sb.WriteString(t.BasePath())
	sb.WriteByte(':')
	sb.WriteString(t.ShortName())
	if t.HasFlavors() {
		sb.WriteByte('#')
		sb.WriteString(t.flavors.String())
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t BuildTarget) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *BuildTarget) UnmarshalText(text []byte) error {
	parsed, err := ParseBuildTarget(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CompareTargets orders targets by their canonical string form.
func CompareTargets(a, b BuildTarget) int {
	return strings.Compare(a.String(), b.String())
}

// SortTargets sorts targets in place and removes duplicates.
func SortTargets(ts []BuildTarget) []BuildTarget {
	slices.SortFunc(ts, CompareTargets)
	return slices.Compact(ts)
}
