package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer drives a Model in a bubbletea program.
type Renderer struct {
	program *tea.Program
	errCh   chan error
}

// NewRenderer creates a renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		errCh:   make(chan error, 1),
	}
}

// Start runs the program in the background.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has exited.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlan sends the planned rules to the program.
func (r *Renderer) OnPlan(plan ports.BuildPlan) {
	r.program.Send(MsgPlan{Plan: plan})
}

// OnRuleStart sends a rule start. The parent span is not shown.
func (r *Renderer) OnRuleStart(spanID, _, target string, at time.Time) {
	r.program.Send(MsgRuleStarted{SpanID: spanID, Target: target, At: at})
}

// OnRuleOutput sends step output.
func (r *Renderer) OnRuleOutput(spanID string, data []byte) {
	r.program.Send(MsgRuleOutput{SpanID: spanID, Data: data})
}

// OnRuleDone sends a rule's outcome.
func (r *Renderer) OnRuleDone(spanID string, at time.Time, outcome ports.RuleOutcome) {
	r.program.Send(MsgRuleDone{SpanID: spanID, At: at, Outcome: outcome})
}
