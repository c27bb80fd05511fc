// Package report aggregates the per-rule results of a build into the exit status and
// the machine-readable build report.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
)

// Report is the outcome of one build invocation.
type Report struct {
	buildID   string
	mode      domain.BuildMode
	requested []domain.BuildTarget
	results   map[domain.BuildTarget]*domain.BuildResult
	order     []*domain.BuildResult
}

// New aggregates results, which the engine returns in topological order.
func New(buildID string, mode domain.BuildMode, requested []domain.BuildTarget, results []*domain.BuildResult) *Report {
	byTarget := make(map[domain.BuildTarget]*domain.BuildResult, len(results))
	for _, r := range results {
		byTarget[r.Target] = r
	}
	return &Report{
		buildID:   buildID,
		mode:      mode,
		requested: slices.Clone(requested),
		results:   byTarget,
		order:     results,
	}
}

// BuildID returns the identifier of the invocation.
func (r *Report) BuildID() string {
	return r.buildID
}

// Result returns the result of target, or nil when it was not part of the build.
func (r *Report) Result(target domain.BuildTarget) *domain.BuildResult {
	return r.results[target]
}

// scope returns the results that decide the exit status: the requested targets, and
// every rule of the closure in DEEP mode.
func (r *Report) scope() []*domain.BuildResult {
	if r.mode == domain.ModeDeep {
		return r.order
	}
	out := make([]*domain.BuildResult, 0, len(r.requested))
	for _, t := range r.requested {
		if res, ok := r.results[t]; ok {
			out = append(out, res)
		}
	}
	return out
}

// Success reports whether every result in scope reached SUCCESS.
func (r *Report) Success() bool {
	for _, t := range r.requested {
		if _, ok := r.results[t]; !ok {
			return false
		}
	}
	for _, res := range r.scope() {
		if !res.IsSuccess() {
			return false
		}
	}
	return true
}

// Err returns domain.ErrBuildFailed when the build did not succeed.
func (r *Report) Err() error {
	if r.Success() {
		return nil
	}
	return domain.ErrBuildFailed
}

// Failure is a rule that did not succeed and why.
type Failure struct {
	Target domain.BuildTarget
	Status domain.BuildStatus
	Cause  string
	Err    error
}

// Failures lists the unsuccessful rules of the closure in build order. Rules that only
// failed because a dependency did are listed after the rules that caused it.
func (r *Report) Failures() []Failure {
	var root, derived []Failure
	for _, res := range r.order {
		if res.IsSuccess() {
			continue
		}
		f := Failure{Target: res.Target, Status: res.Status, Cause: cause(res), Err: res.Err}
		if res.Status == domain.StatusFailure {
			root = append(root, f)
		} else {
			derived = append(derived, f)
		}
	}
	return append(root, derived...)
}

func cause(res *domain.BuildResult) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return res.Status.String()
}

// Summary is a one-line account of the build.
func (r *Report) Summary() string {
	counts := make(map[string]int)
	for _, res := range r.order {
		counts[res.Outcome()]++
	}
	built := counts[domain.BuiltLocally.String()]
	fetched := counts[domain.FetchedFromCache.String()] + counts[domain.FetchedFromCacheDepFile.String()]
	matched := counts[domain.MatchingRuleKey.String()] + counts[domain.MatchingDepFileRuleKey.String()]
	failed := counts[domain.StatusFailure.String()]
	return fmt.Sprintf("%d rule(s): %d built, %d fetched, %d up to date, %d failed, %d canceled, %d unpopulated",
		len(r.order), built, fetched, matched, failed,
		counts[domain.StatusCanceled.String()], counts[domain.StatusUnpopulated.String()])
}

// OutputLines returns "target path" for every requested target with outputs.
func (r *Report) OutputLines() []string {
	var lines []string
	for _, t := range r.requested {
		res := r.results[t]
		if res == nil || !res.IsSuccess() {
			continue
		}
		if out := singleOutput(res); out != "" {
			lines = append(lines, t.String()+" "+out)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(res.Outputs)) {
			lines = append(lines, t.String()+"["+name+"] "+filepath.ToSlash(res.Outputs[name]))
		}
	}
	return lines
}

// RuleKeyLines returns "target key" for every requested target with a rule key.
func (r *Report) RuleKeyLines() []string {
	var lines []string
	for _, t := range r.requested {
		res := r.results[t]
		if res == nil || res.RuleKey.IsZero() {
			continue
		}
		lines = append(lines, t.String()+" "+res.RuleKey.String())
	}
	return lines
}

type document struct {
	BuildID  string            `json:"buildId"`
	Success  bool              `json:"success"`
	Results  map[string]entry  `json:"results"`
	Failures map[string]string `json:"failures"`
}

type entry struct {
	Success string            `json:"success"`
	Type    string            `json:"type,omitempty"`
	Output  string            `json:"output,omitempty"`
	Outputs map[string]string `json:"outputs,omitempty"`
	RuleKey string            `json:"ruleKey,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// WriteJSON writes the build report: one entry per requested target and the causes of
// every failed rule.
func (r *Report) WriteJSON(w io.Writer) error {
	doc := document{
		BuildID:  r.buildID,
		Success:  r.Success(),
		Results:  make(map[string]entry, len(r.requested)),
		Failures: make(map[string]string),
	}
	for _, t := range r.requested {
		res := r.results[t]
		if res == nil {
			continue
		}
		e := entry{
			Success: res.Status.String(),
			Type:    res.Kind.String(),
			Output:  singleOutput(res),
		}
		if len(res.Outputs) > 0 {
			e.Outputs = make(map[string]string, len(res.Outputs))
			for name, p := range res.Outputs {
				e.Outputs[name] = filepath.ToSlash(p)
			}
		}
		if !res.RuleKey.IsZero() {
			e.RuleKey = res.RuleKey.String()
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		doc.Results[t.String()] = e
	}
	for _, f := range r.Failures() {
		if f.Status == domain.StatusFailure {
			doc.Failures[f.Target.String()] = f.Cause
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func singleOutput(res *domain.BuildResult) string {
	if len(res.Outputs) > 0 || len(res.OutputPaths) != 1 {
		return ""
	}
	return filepath.ToSlash(res.OutputPaths[0])
}
