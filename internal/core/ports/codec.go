package ports

import (
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

// GraphCodec defines the interface for serializing a target graph so that another
// process can build it without parsing build files.
//
//go:generate mockgen -source=codec.go -destination=mocks/mock_codec.go -package=mocks
type GraphCodec interface {
	// Encode writes graph to w.
	Encode(w io.Writer, graph *domain.TargetGraph) error

	// Decode reads a graph written by Encode and validates it.
	Decode(r io.Reader) (*domain.TargetGraph, error)
}
