// Package metrics counts rule outcomes, cache lookups and step durations with
// Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics on its own registry.
type Recorder struct {
	registry     *prometheus.Registry
	results      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiln",
			Name:      "rule_results_total",
			Help:      "Terminal rule results by status and success kind",
		}, []string{"status", "kind", "type"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kiln",
			Name:      "cache_lookups_total",
			Help:      "Artifact cache lookups by tier and result",
		}, []string{"source", "result"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kiln",
			Name:      "step_duration_seconds",
			Help:      "Time spent running the steps of a rule",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"type"}),
	}
}

// RecordResult counts a terminal rule result.
func (r *Recorder) RecordResult(result *domain.BuildResult) {
	r.results.WithLabelValues(result.Status.String(), result.Kind.String(), result.Type).Inc()
}

// RecordCacheLookup counts an artifact cache lookup.
func (r *Recorder) RecordCacheLookup(result domain.CacheResult) {
	r.cacheLookups.WithLabelValues(result.Source, result.Type.String()).Inc()
}

// RecordSteps observes how long a rule's steps took.
func (r *Recorder) RecordSteps(ruleType string, d time.Duration) {
	r.stepDuration.WithLabelValues(ruleType).Observe(d.Seconds())
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics"), "path", path)
	}
	return nil
}
