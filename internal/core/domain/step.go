package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// StepKind enumerates the operations a rule can run.
type StepKind uint8

const (
	// StepExec runs a command.
	StepExec StepKind = iota
	// StepCopy copies a source file or directory into the scratch directory.
	StepCopy
	// StepMkdir creates a directory inside the scratch directory.
	StepMkdir
	// StepWrite writes fixed content to a file inside the scratch directory.
	StepWrite
)

// String returns the step kind name.
func (k StepKind) String() string {
	switch k {
	case StepExec:
		return "exec"
	case StepCopy:
		return "copy"
	case StepMkdir:
		return "mkdir"
	case StepWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Step is one operation of a rule. Paths other than Src are relative to the rule's
// scratch directory.
type Step struct {
	Kind    StepKind
	Argv    []string
	Env     map[string]string
	Src     SourcePath
	Dst     string
	Content []byte
}

// ExecStep runs argv with extra environment variables.
func ExecStep(argv []string, env map[string]string) Step {
	return Step{Kind: StepExec, Argv: argv, Env: env}
}

// CopyStep copies src to dst.
func CopyStep(src SourcePath, dst string) Step {
	return Step{Kind: StepCopy, Src: src, Dst: dst}
}

// MkdirStep creates dir and its parents.
func MkdirStep(dir string) Step {
	return Step{Kind: StepMkdir, Dst: dir}
}

// WriteStep writes content to dst.
func WriteStep(dst string, content []byte) Step {
	return Step{Kind: StepWrite, Dst: dst, Content: content}
}

// String renders the step for signatures.
func (s Step) String() string {
	switch s.Kind {
	case StepExec:
		var sb strings.Builder
		sb.WriteString("exec")
		for _, a := range s.Argv {
			sb.WriteString(" " + strconv.Quote(a))
		}
		for _, k := range slices.Sorted(maps.Keys(s.Env)) {
			sb.WriteString(" " + k + "=" + strconv.Quote(s.Env[k]))
		}
		return sb.String()
	case StepCopy:
		return "copy " + s.Src.String() + " " + s.Dst
	case StepMkdir:
		return "mkdir " + s.Dst
	case StepWrite:
		return "write " + s.Dst + " " + strconv.Itoa(len(s.Content))
	default:
		return s.Kind.String()
	}
}

// PreparedStep is a step with every path resolved to an absolute location.
type PreparedStep struct {
	Kind    StepKind
	Argv    []string
	Env     map[string]string
	Dir     string
	Src     string
	Dst     string
	Content []byte
}
