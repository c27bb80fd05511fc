// Package style holds the palette and outcome icons shared by the logger and the
// build renderers.
package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	Ember = lipgloss.Color("#E8590C")
	Ash   = lipgloss.Color("#667085")
	Smoke = lipgloss.Color("#98A2B3")
	White = lipgloss.Color("#FFFFFF")
	Green = lipgloss.Color("#22A06B")
	Cyan  = lipgloss.Color("#0EA5E9")
	Red   = lipgloss.Color("#D93025")
	Amber = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "↓"
)

// Class groups rule results the way renderers display them.
type Class uint8

const (
	// Built rules ran their steps.
	Built Class = iota
	// Fetched rules were served by an artifact cache.
	Fetched
	// Reused rules kept the outputs already on disk.
	Reused
	// Skipped rules were canceled or left unpopulated.
	Skipped
	// Failed rules could not be built.
	Failed
)

// Classify maps a result name from a build report to its class. Any error makes
// the rule failed.
func Classify(result string, err error) Class {
	switch {
	case err != nil || result == "FAIL":
		return Failed
	case result == "CANCELED" || result == "UNPOPULATED":
		return Skipped
	case strings.HasPrefix(result, "FETCHED_FROM_CACHE"):
		return Fetched
	case strings.HasPrefix(result, "MATCHING_") || result == "NOOP":
		return Reused
	default:
		return Built
	}
}

// Icon returns the class's status icon.
func (c Class) Icon() string {
	switch c {
	case Fetched:
		return Arrow
	case Reused:
		return Tilde
	case Skipped:
		return Circle
	case Failed:
		return Cross
	default:
		return Check
	}
}

// Color returns the class's foreground color.
func (c Class) Color() lipgloss.Color {
	switch c {
	case Fetched:
		return Cyan
	case Reused:
		return Smoke
	case Skipped:
		return Amber
	case Failed:
		return Red
	default:
		return Green
	}
}
