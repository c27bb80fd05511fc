// Package detector picks the output renderer from the terminal and CI environment.
package detector

import (
	"os"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive TUI renderer.
	ModeTUI
	// ModeLinear forces the linear CI renderer.
	ModeLinear
)

// String returns the flag value of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsCI reports whether a CI environment variable is set to a true value.
func IsCI(getenv func(string) string) bool {
	ci := getenv("CI")
	return ci == "true" || ci == "1"
}

// Detect returns the mode for an environment: linear without a terminal or in CI,
// TUI otherwise.
func Detect(isTTY bool, getenv func(string) string) OutputMode {
	if !isTTY || IsCI(getenv) {
		return ModeLinear
	}
	return ModeTUI
}

// DetectEnvironment returns the recommended output mode for this process.
func DetectEnvironment() OutputMode {
	return Detect(IsTerminal(), os.Getenv)
}

// ParseMode parses an --output-mode flag value. "ci" is an alias of "linear".
func ParseMode(flag string) (OutputMode, error) {
	switch flag {
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	case "auto", "":
		return ModeAuto, nil
	default:
		return ModeAuto, zerr.With(domain.ErrInvalidArgument, "output-mode", flag)
	}
}

// ResolveMode applies a user choice to the detected mode.
func ResolveMode(autoDetected, user OutputMode) OutputMode {
	if user == ModeAuto {
		return autoDetected
	}
	return user
}
