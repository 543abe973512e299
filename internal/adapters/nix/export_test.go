package nix

import (
	"context"

	"go.trai.ch/pinbuild/internal/adapters/toolchain"
	"go.trai.ch/pinbuild/internal/core/domain"
)

// GenerateNixExprForTest exports generateNixExpr for testing.
func GenerateNixExprForTest(system string, spec domain.EnvSpec) (string, error) {
	return generateNixExpr(system, spec)
}

// NewEnvFactoryForTest creates a factory with a fixed system and a fake evaluator.
func NewEnvFactoryForTest(
	cacheDir, system string,
	evaluate func(ctx context.Context, exprPath string) ([]byte, error),
) *EnvFactory {
	f := NewEnvFactoryWithCache(cacheDir)
	f.system = system
	f.systemErr = nil
	f.evaluate = evaluate
	return f
}

// NewEnvFactoryForHost creates a factory for the platform of goos/goarch.
func NewEnvFactoryForHost(
	cacheDir, goos, goarch string,
	evaluate func(ctx context.Context, exprPath string) ([]byte, error),
) *EnvFactory {
	f := newEnvFactory(cacheDir, func() (toolchain.Platform, error) {
		return toolchain.PlatformFor(goos, goarch)
	})
	f.evaluate = evaluate
	return f
}
