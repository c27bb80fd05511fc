// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

// StepExecutor defines the interface for running rule steps.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type StepExecutor interface {
	// Execute runs one prepared step.
	//
	// Every path in step is absolute. Commands run in step.Dir with step.Env layered
	// over a fixed allow-list of the host environment.
	//
	// It returns an error if the step fails or ctx ends before it finishes.
	Execute(ctx context.Context, step *domain.PreparedStep, stdout, stderr io.Writer) error
}
