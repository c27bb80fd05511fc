// Package tui renders a build as an interactive dependency tree with live rule output.
package tui

import (
	"io"
	"maps"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

const (
	listWidthRatio  = 0.35
	paneChromeWidth = 4
	tickInterval    = 100 * time.Millisecond
)

// RuleState is the display state of a rule.
type RuleState uint8

const (
	// StatePending means the rule has not started.
	StatePending RuleState = iota
	// StateRunning means the rule is being processed.
	StateRunning
	// StateBuilt means the rule's steps ran.
	StateBuilt
	// StateReused means the outputs came from the cache or were already on disk.
	StateReused
	// StateFailed means the rule failed.
	StateFailed
	// StateSkipped means the rule was canceled or left unpopulated.
	StateSkipped
)

// RuleNode is the live state of one planned rule.
type RuleNode struct {
	Name    string
	State   RuleState
	Outcome string
	// Source is the cache tier that served a fetched rule.
	Source string
	Err     error
	Pane    *Pane
	Started time.Time
	Ended   time.Time
}

// Elapsed returns how long the rule has been running, or ran.
func (r *RuleNode) Elapsed(now time.Time) time.Duration {
	switch {
	case r.Started.IsZero():
		return 0
	case r.Ended.IsZero():
		return now.Sub(r.Started)
	default:
		return r.Ended.Sub(r.Started)
	}
}

func (r *RuleNode) finish(at time.Time, o ports.RuleOutcome) {
	r.State = stateOf(o.Result, o.Err)
	r.Outcome = o.Result
	r.Source = o.CacheSource
	r.Err = o.Err
	r.Ended = at
}

func stateOf(result string, err error) RuleState {
	switch style.Classify(result, err) {
	case style.Built:
		return StateBuilt
	case style.Skipped:
		return StateSkipped
	case style.Failed:
		return StateFailed
	default:
		return StateReused
	}
}

type tickMsg time.Time

// Model is the bubbletea model of a build.
type Model struct {
	Rules   map[string]*RuleNode
	Roots   []*TreeNode
	Visible []*TreeNode

	// Active is the rule whose output is shown.
	Active string
	// Follow moves the selection to each rule as it starts.
	Follow bool

	Selected   int
	ListOffset int
	ListHeight int
	PaneWidth  int
	PaneHeight int

	spans map[string]*RuleNode
	now   func() time.Time
}

// NewModel creates an empty model. Colors follow the terminal behind w.
func NewModel(w io.Writer) *Model {
	lipgloss.SetColorProfile(output.New(w, true).Profile)
	return &Model{
		Rules:  make(map[string]*RuleNode),
		Follow: true,
		spans:  make(map[string]*RuleNode),
		now:    time.Now,
	}
}

// Init starts the clock that refreshes running durations.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update applies a message to the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tickMsg:
		return m, tick()
	case MsgPlan:
		m.plan(msg.Plan)
	case MsgRuleStarted:
		m.start(msg)
	case MsgRuleOutput:
		if node, ok := m.spans[msg.SpanID]; ok {
			_, _ = node.Pane.Write(msg.Data)
		}
	case MsgRuleDone:
		if node, ok := m.spans[msg.SpanID]; ok {
			node.finish(msg.At, msg.Outcome)
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "k", "up":
		m.moveSelection(-1)
	case "j", "down":
		m.moveSelection(1)
	case "l", "right", "enter":
		m.setExpanded(true)
	case "h", "left":
		m.setExpanded(false)
	case "esc":
		m.Follow = true
		for _, name := range slices.Sorted(maps.Keys(m.Rules)) {
			if m.Rules[name].State == StateRunning {
				m.focus(name)
				break
			}
		}
	case "pgup":
		m.activePane(func(p *Pane) { p.ScrollPage(-1) })
	case "pgdown":
		m.activePane(func(p *Pane) { p.ScrollPage(1) })
	case "home":
		m.activePane((*Pane).ScrollTop)
	case "end":
		m.activePane((*Pane).ScrollBottom)
	}
	return nil
}

func (m *Model) activePane(fn func(*Pane)) {
	if node, ok := m.Rules[m.Active]; ok {
		fn(node.Pane)
	}
}

func (m *Model) moveSelection(delta int) {
	next := m.Selected + delta
	if next < 0 || next >= len(m.Visible) {
		return
	}
	m.Follow = false
	m.Selected = next
	m.Active = m.Visible[next].Rule.Name
	m.ensureVisible()
}

func (m *Model) setExpanded(expanded bool) {
	if m.Selected >= len(m.Visible) {
		return
	}
	node := m.Visible[m.Selected]
	if !expanded && !node.Expanded && node.Parent != nil {
		node = node.Parent
	}
	node.Expanded = expanded && len(node.Children) > 0
	m.Visible = flattenTree(m.Roots)
	m.Selected = indexOf(m.Visible, node)
	m.ensureVisible()
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * listWidthRatio)
	headerHeight := lipgloss.Height(titleStyle.Render("RULES"))

	m.PaneWidth = max(width-listWidth-paneChromeWidth, 1)
	m.PaneHeight = max(height-headerHeight, 1)
	m.ListHeight = max(height-lipgloss.Height(titleStyle.Render("RULES")+"\n\n"), 1)
	for _, node := range m.Rules {
		node.Pane.Resize(m.PaneWidth, m.PaneHeight)
	}
	m.ensureVisible()
}

func (m *Model) plan(plan ports.BuildPlan) {
	m.Rules = make(map[string]*RuleNode, len(plan.Rules))
	m.spans = make(map[string]*RuleNode)
	for _, name := range plan.Rules {
		pane := NewPane()
		if m.PaneWidth > 0 {
			pane.Resize(m.PaneWidth, m.PaneHeight)
		}
		m.Rules[name] = &RuleNode{Name: name, Pane: pane}
	}
	m.Roots = buildTree(plan.Targets, plan.Deps, m.Rules)
	m.Visible = flattenTree(m.Roots)
	m.Selected, m.ListOffset = 0, 0
}

func (m *Model) start(msg MsgRuleStarted) {
	node, ok := m.Rules[msg.Target]
	if !ok {
		return
	}
	node.State = StateRunning
	node.Started = msg.At
	m.spans[msg.SpanID] = node
	if m.Follow {
		m.focus(msg.Target)
	}
}

// focus shows the rule's output and selects its first occurrence in the tree.
func (m *Model) focus(name string) {
	m.Active = name
	if !expandTo(m.Roots, name) {
		return
	}
	m.Visible = flattenTree(m.Roots)
	for i, n := range m.Visible {
		if n.Rule.Name == name {
			m.Selected = i
			break
		}
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.Selected < m.ListOffset {
		m.ListOffset = m.Selected
	} else if m.Selected >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.Selected - m.ListHeight + 1
	}
}

func indexOf(nodes []*TreeNode, target *TreeNode) int {
	for i, n := range nodes {
		if n == target {
			return i
		}
	}
	return 0
}
