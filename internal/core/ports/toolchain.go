package ports

import (
	"context"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// ToolchainResolver selects an exact compiler toolchain.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type ToolchainResolver interface {
	// Resolve returns the descriptor of the published (channel, version)
	// release for the given targets.
	//
	// It fails with domain.ErrToolchainNotFound when the release is not
	// published and never returns a partially filled descriptor. Floating
	// versions such as "latest" are rejected.
	Resolve(ctx context.Context, channel, version string, targets []string) (domain.Toolchain, error)
}
