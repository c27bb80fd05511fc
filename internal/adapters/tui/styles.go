package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

var (
	pendingStyle = lipgloss.NewStyle().Foreground(style.Ash)

	runningStyle = lipgloss.NewStyle().
			Foreground(style.Ember).
			Bold(true)

	builtStyle = lipgloss.NewStyle().Foreground(style.Green)

	reusedStyle = lipgloss.NewStyle().
			Foreground(style.Smoke).
			Faint(true)

	failedStyle = lipgloss.NewStyle().Foreground(style.Red)

	skippedStyle = lipgloss.NewStyle().Foreground(style.Amber)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Ember).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Ember).
			Foreground(style.White)

	failureTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Background(style.Red).
				Foreground(style.White)

	listStyle = lipgloss.NewStyle().MarginRight(2)

	logStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Ash).
			PaddingLeft(1)
)
