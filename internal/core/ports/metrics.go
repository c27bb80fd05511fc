package ports

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Metrics defines the interface for recording build counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// RecordResult counts a terminal rule result.
	RecordResult(result *domain.BuildResult)

	// RecordCacheLookup counts an artifact cache lookup.
	RecordCacheLookup(result domain.CacheResult)

	// RecordSteps observes how long a rule's steps took.
	RecordSteps(ruleType string, d time.Duration)
}
