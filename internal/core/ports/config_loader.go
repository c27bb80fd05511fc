package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading workspace configuration and build files.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// LoadWorkspace reads the workspace configuration found from cwd upwards.
	LoadWorkspace(cwd string) (*domain.Workspace, error)

	// LoadGraph parses every build file of the workspace into a validated target graph.
	LoadGraph(ws *domain.Workspace) (*domain.TargetGraph, error)

	// DiscoverRoot walks up from cwd to find the workspace root.
	// Returns the directory containing kiln.work.yaml or kiln.yaml.
	DiscoverRoot(cwd string) (string, error)
}
