package ports

import "go.trai.ch/kiln/internal/core/domain"

// BuildRecordStore defines the interface for remembering the last successful build of each target.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the record of target.
	// Returns nil, nil if not found.
	Get(target domain.BuildTarget) (*domain.BuildRecord, error)

	// Put stores a record, replacing any previous record of the same target.
	Put(record *domain.BuildRecord) error

	// Delete removes the record of target.
	Delete(target domain.BuildTarget) error

	// Close releases the underlying database.
	Close() error
}
