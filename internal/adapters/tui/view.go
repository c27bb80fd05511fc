package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

// View renders the rule tree next to the active rule's output.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.ruleList(), m.logPane())
}

func (m *Model) ruleList() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(m.summary()) + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Visible))
	for i := min(m.ListOffset, end); i < end; i++ {
		s.WriteString(m.renderRow(i, m.Visible[i]) + "\n")
	}
	return listStyle.Render(s.String())
}

func (m *Model) summary() string {
	var done, failed int
	for _, r := range m.Rules {
		switch r.State {
		case StateBuilt, StateReused, StateSkipped:
			done++
		case StateFailed:
			done++
			failed++
		}
	}
	text := fmt.Sprintf("RULES %d/%d", done, len(m.Rules))
	if failed > 0 {
		text += fmt.Sprintf(" %s %d", style.Cross, failed)
	}
	return text
}

func (m *Model) renderRow(index int, node *TreeNode) string {
	rule := node.Rule
	rowStyle := stateStyle(rule.State)

	cursor := "  "
	if index == m.Selected {
		cursor = selectedStyle.Render("> ")
		if rule.State == StatePending || rule.State == StateRunning {
			rowStyle = selectedStyle
		}
	}

	fold := " "
	if len(node.Children) > 0 {
		fold = "▸"
		if node.Expanded {
			fold = "▾"
		}
	}

	content := fmt.Sprintf("%s%s %s %s", strings.Repeat("  ", node.Depth), fold, stateIcon(rule.State, rule.Outcome), rule.Name)
	if d := rule.Elapsed(m.now()); d > 0 {
		content += " " + d.Round(100*time.Millisecond).String()
	}
	return cursor + rowStyle.Render(content)
}

func stateIcon(state RuleState, outcome string) string {
	switch state {
	case StateRunning:
		return style.Dot
	case StateBuilt:
		return style.Check
	case StateReused:
		return style.Classify(outcome, nil).Icon()
	case StateFailed:
		return style.Cross
	case StateSkipped:
		return style.Warning
	default:
		return style.Circle
	}
}

func stateStyle(state RuleState) lipgloss.Style {
	switch state {
	case StateRunning:
		return runningStyle
	case StateBuilt:
		return builtStyle
	case StateReused:
		return reusedStyle
	case StateFailed:
		return failedStyle
	case StateSkipped:
		return skippedStyle
	default:
		return pendingStyle
	}
}

func (m *Model) logPane() string {
	node, ok := m.Rules[m.Active]
	if !ok {
		return logStyle.Render(titleStyle.Render("LOGS (waiting)"))
	}

	mode := "following"
	if !m.Follow {
		mode = "manual"
	}
	title := fmt.Sprintf("%s (%s)", node.Name, mode)
	if node.Source != "" {
		title = fmt.Sprintf("%s (%s, from %s cache)", node.Name, mode, node.Source)
	}
	header := titleStyle.Render(title)
	if node.State == StateFailed {
		header = failureTitleStyle.Render(fmt.Sprintf("%s %s", node.Name, node.Outcome))
	}

	body := node.Pane.View()
	if node.Err != nil {
		body = strings.TrimRight(body+"\n"+failedStyle.Render(node.Err.Error()), "\n")
	}
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
}
