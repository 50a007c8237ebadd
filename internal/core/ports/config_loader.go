package ports

import "go.trai.ch/ripple/internal/core/domain"

// ConfigLoader defines the interface for loading the workspace manifest.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the manifest by walking up from cwd and returns the workspace it describes.
	Load(cwd string) (*domain.Workspace, error)
}
