// Package linear renders a build as chronological, target-prefixed lines for CI logs
// and other non-interactive output.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer writes step output to stdout and one status line per finished rule to
// stderr. It is synchronous: every event is written before the call returns.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	term   *termenv.Output

	mu    sync.Mutex
	rules map[string]*rule // by span ID
}

type rule struct {
	target  string
	started time.Time
	// partial holds output after the last newline.
	partial []byte
}

// NewRenderer creates a Renderer. Nil writers select stdout and stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		term:   output.New(stderr, false),
		rules:  make(map[string]*rule),
	}
}

// Start does nothing.
func (r *Renderer) Start(context.Context) error { return nil }

// Wait does nothing.
func (r *Renderer) Wait() error { return nil }

// Stop writes out partial lines of rules that never finished.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.rules {
		r.flushLocked(st)
	}
	return nil
}

// OnPlan prints the size of the build.
func (r *Renderer) OnPlan(plan ports.BuildPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.stderr, "Planned %s for %s\n",
		plural(len(plan.Rules), "rule"), strings.Join(plan.Targets, ", "))
}

// OnRuleStart records the rule. Nothing is printed until it writes output or finishes,
// so rules served from the cache produce a single line.
func (r *Renderer) OnRuleStart(spanID, _, target string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[spanID] = &rule{target: target, started: at}
}

// OnRuleOutput prints every complete line of data prefixed with the rule's target.
func (r *Renderer) OnRuleOutput(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rules[spanID]
	if !ok {
		return
	}
	rest := append(st.partial, data...)
	for {
		line, after, found := bytes.Cut(rest, []byte{'\n'})
		if !found {
			break
		}
		r.printLocked(st.target, line)
		rest = after
	}
	st.partial = bytes.Clone(rest)
}

// OnRuleDone flushes pending output and prints the rule's outcome and duration.
func (r *Renderer) OnRuleDone(spanID string, at time.Time, outcome ports.RuleOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rules[spanID]
	if !ok {
		return
	}
	delete(r.rules, spanID)
	r.flushLocked(st)

	class := style.Classify(outcome.Result, outcome.Err)
	icon := r.term.String(class.Icon()).Foreground(termenv.RGBColor(string(class.Color())))
	var sb strings.Builder
	sb.WriteString(r.term.String("[" + st.target + "]").Faint().String())
	sb.WriteString(" " + icon.String())
	if outcome.Result != "" {
		sb.WriteString(" " + outcome.Result)
	}
	if outcome.CacheSource != "" {
		sb.WriteString(" from " + outcome.CacheSource)
	}
	elapsed := at.Sub(st.started).Round(time.Millisecond)
	if outcome.Err != nil {
		fmt.Fprintf(&sb, " after %v: %v", elapsed, outcome.Err)
	} else {
		fmt.Fprintf(&sb, " in %v", elapsed)
	}
	_, _ = fmt.Fprintln(r.stderr, sb.String())
}

// flushLocked prints the rule's partial line, if any.
func (r *Renderer) flushLocked(st *rule) {
	if len(st.partial) > 0 {
		r.printLocked(st.target, st.partial)
		st.partial = nil
	}
}

// printLocked writes one line of step output. Blank lines are dropped.
func (r *Renderer) printLocked(target string, line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", target, line)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
