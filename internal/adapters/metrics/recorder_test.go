package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.RecordResult(&domain.BuildResult{Type: "genrule", Status: domain.StatusSuccess, Kind: domain.BuiltLocally})
	r.RecordResult(&domain.BuildResult{Type: "genrule", Status: domain.StatusSuccess, Kind: domain.BuiltLocally})
	r.RecordResult(&domain.BuildResult{Type: "genrule", Status: domain.StatusFailure})
	r.RecordCacheLookup(domain.Hit("dir"))
	r.RecordCacheLookup(domain.Miss("remote"))
	r.RecordCacheLookup(domain.CacheErr("remote", errors.New("unreachable")))
	r.RecordSteps("genrule", 250*time.Millisecond)

	n, err := testutil.GatherAndCount(r.Gatherer(), "kiln_rule_results_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per label set")

	n, err = testutil.GatherAndCount(r.Gatherer(), "kiln_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = testutil.GatherAndCount(r.Gatherer(), "kiln_step_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.RecordCacheLookup(domain.Hit("dir"))

	path := filepath.Join(t.TempDir(), "kiln.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `kiln_cache_lookups_total{result="hit",source="dir"} 1`)
}
