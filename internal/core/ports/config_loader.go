package ports

import "go.trai.ch/pinbuild/internal/core/domain"

// ConfigLoader defines the interface for loading the project descriptor.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers pinbuild.yaml starting at cwd and walking up, and returns
	// the validated project.
	Load(cwd string) (*domain.Project, error)
}
