// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// EnvironmentFactory materialises hermetic environments from pinned sources.
//
// Implementations are responsible for:
//   - Fetching the pinned package collection and toolchain overlay
//   - Evaluating the toolchain and every requested package
//   - Constructing environment variables (PATH, PKG_CONFIG_PATH, etc.)
//
//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvironmentFactory interface {
	// GetEnvironment returns the environment described by spec as sorted
	// "KEY=VALUE" strings suitable for process execution.
	//
	// Two specs with the same ID always yield the same environment; the ID
	// covers every pin hash.
	GetEnvironment(ctx context.Context, spec domain.EnvSpec) ([]string, error)
}
