package linear_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var built = ports.RuleOutcome{Result: domain.BuiltLocally.String()}

func newRenderer(t *testing.T) (*linear.Renderer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	return linear.NewRenderer(&stdout, &stderr), &stdout, &stderr
}

func TestRenderer_Lifecycle(t *testing.T) {
	r, stdout, stderr := newRenderer(t)
	require.NoError(t, r.Start(context.Background()))

	r.OnPlan(ports.BuildPlan{
		Rules:   []string{"//lib:a", "//app:bin"},
		Deps:    map[string][]string{"//app:bin": {"//lib:a"}},
		Targets: []string{"//app:bin"},
	})
	assert.Equal(t, "Planned 2 rules for //app:bin\n", stderr.String())

	start := time.Unix(100, 0)
	r.OnRuleStart("span1", "", "//lib:a", start)
	assert.NotContains(t, stderr.String(), "//lib:a", "start is silent")

	r.OnRuleOutput("span1", []byte("first line\nsecond line\n"))
	assert.Equal(t, "[//lib:a] first line\n[//lib:a] second line\n", stdout.String())

	r.OnRuleDone("span1", start.Add(1500*time.Millisecond), built)
	assert.Contains(t, stderr.String(), "[//lib:a] ✓ BUILT_LOCALLY in 1.5s")

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())
}

func TestRenderer_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome ports.RuleOutcome
		want    string
	}{
		{
			name:    "fetched",
			outcome: ports.RuleOutcome{Result: domain.FetchedFromCache.String(), CacheSource: "remote"},
			want:    "↓ FETCHED_FROM_CACHE from remote in 10ms",
		},
		{
			name:    "fetched dep file",
			outcome: ports.RuleOutcome{Result: domain.FetchedFromCacheDepFile.String(), CacheSource: "dir"},
			want:    "↓ FETCHED_FROM_CACHE_DEP_FILE from dir in 10ms",
		},
		{name: "matching", outcome: ports.RuleOutcome{Result: domain.MatchingRuleKey.String()}, want: "~ MATCHING_RULE_KEY in 10ms"},
		{name: "noop", outcome: ports.RuleOutcome{Result: domain.Noop.String()}, want: "~ NOOP in 10ms"},
		{name: "canceled", outcome: ports.RuleOutcome{Result: domain.StatusCanceled.String()}, want: "○ CANCELED in 10ms"},
		{name: "unpopulated", outcome: ports.RuleOutcome{Result: domain.StatusUnpopulated.String()}, want: "○ UNPOPULATED in 10ms"},
		{
			name:    "failed",
			outcome: ports.RuleOutcome{Result: domain.StatusFailure.String(), Err: errors.New("exit status 1")},
			want:    "✗ FAIL after 10ms: exit status 1",
		},
		{
			name:    "error without status",
			outcome: ports.RuleOutcome{Err: errors.New("span error")},
			want:    "✗ after 10ms: span error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, stderr := newRenderer(t)
			start := time.Unix(0, 0)
			r.OnRuleStart("s", "", "//a:a", start)
			r.OnRuleDone("s", start.Add(10*time.Millisecond), tt.outcome)
			assert.Equal(t, "[//a:a] "+tt.want+"\n", stderr.String())
		})
	}
}

func TestRenderer_PartialLines(t *testing.T) {
	r, stdout, _ := newRenderer(t)

	r.OnRuleStart("span1", "", "//a:a", time.Now())
	r.OnRuleOutput("span1", []byte("par"))
	assert.Empty(t, stdout.String(), "partial lines are held back")

	r.OnRuleOutput("span1", []byte("tial\nrest"))
	assert.Equal(t, "[//a:a] partial\n", stdout.String())

	r.OnRuleDone("span1", time.Now(), built)
	assert.Equal(t, "[//a:a] partial\n[//a:a] rest\n", stdout.String(), "completion flushes the remainder")
}

func TestRenderer_StopFlushesBuffers(t *testing.T) {
	r, stdout, _ := newRenderer(t)

	r.OnRuleStart("span1", "", "//a:a", time.Now())
	r.OnRuleOutput("span1", []byte("unterminated"))
	require.NoError(t, r.Stop())
	assert.Equal(t, "[//a:a] unterminated\n", stdout.String())
}

func TestRenderer_UnknownSpan(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	r.OnRuleOutput("missing", []byte("data\n"))
	r.OnRuleDone("missing", time.Now(), built)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRenderer_NoColor(t *testing.T) {
	r, _, stderr := newRenderer(t)

	r.OnRuleStart("span1", "", "//a:a", time.Now())
	r.OnRuleDone("span1", time.Now(), built)
	assert.NotContains(t, stderr.String(), "\x1b[")
}

func TestRenderer_ConcurrentRules(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	const n = 16
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("span%d", i)
			r.OnRuleStart(id, "", fmt.Sprintf("//p:r%d", i), time.Now())
			r.OnRuleOutput(id, []byte("hello\n"))
			r.OnRuleDone(id, time.Now(), built)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, strings.Count(stdout.String(), "hello\n"))
	assert.Equal(t, n, strings.Count(stderr.String(), "BUILT_LOCALLY"))
}

func TestRenderer_PluralPlan(t *testing.T) {
	r, _, stderr := newRenderer(t)
	r.OnPlan(ports.BuildPlan{Rules: []string{"//a:a"}, Targets: []string{"//a:a", "//b:b"}})
	assert.Equal(t, "Planned 1 rule for //a:a, //b:b\n", stderr.String())
}

func TestRenderer_CRLFAndBlankLines(t *testing.T) {
	r, stdout, _ := newRenderer(t)
	r.OnRuleStart("s", "", "//a:a", time.Now())
	r.OnRuleOutput("s", []byte("one\r\n\n  \ntwo\n"))
	assert.Equal(t, "[//a:a] one\n[//a:a]   \n[//a:a] two\n", stdout.String())
}

func TestRenderer_NilWriters(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, linear.NewRenderer(nil, nil))
}
