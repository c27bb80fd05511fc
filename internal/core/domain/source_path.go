package domain

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// SourcePath names an input of a rule: either a file relative to the project root
// or an output of another target.
type SourcePath struct {
	path   string
	target BuildTarget
	output string
}

// NewFileSource creates a source for a root-relative, slash-separated file path.
func NewFileSource(p string) SourcePath {
	return SourcePath{path: path.Clean(p)}
}

// NewTargetSource creates a source for an output of target. An empty output names
// the target's default output.
func NewTargetSource(target BuildTarget, output string) SourcePath {
	return SourcePath{target: target, output: output}
}

// ParseSourceRef parses a target reference of the form "cell//path:name#flavors[output]".
func ParseSourceRef(ref, cell, basePath string) (SourcePath, error) {
	output := ""
	if strings.HasSuffix(ref, "]") {
		idx := strings.LastIndex(ref, "[")
		if idx < 0 {
			return SourcePath{}, zerr.With(ErrInvalidTarget, "target", ref)
		}
		output = ref[idx+1 : len(ref)-1]
		ref = ref[:idx]
	}
	t, err := ParseRelativeTarget(ref, cell, basePath)
	if err != nil {
		return SourcePath{}, err
	}
	return NewTargetSource(t, output), nil
}

// IsTargetRef reports whether s looks like a target reference rather than a file path.
func IsTargetRef(s string) bool {
	return strings.HasPrefix(s, ":") || strings.Contains(s, "//")
}

// IsTarget reports whether the source refers to another target's output.
func (s SourcePath) IsTarget() bool {
	return !s.target.IsZero()
}

// Path returns the root-relative file path of a file source.
func (s SourcePath) Path() string {
	return s.path
}

// Target returns the producing target of a target source.
func (s SourcePath) Target() BuildTarget {
	return s.target
}

// Output returns the output name of a target source.
func (s SourcePath) Output() string {
	return s.output
}

// String returns the textual form used in rule signatures and diagnostics.
func (s SourcePath) String() string {
	if !s.IsTarget() {
		return s.path
	}
	if s.output == "" {
		return s.target.String()
	}
	return s.target.String() + "[" + s.output + "]"
}
