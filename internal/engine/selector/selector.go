// Package selector picks the primary artifact of a workspace unit out of a
// built package set.
package selector

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// AppType is the invocation convention of every selected binary.
const AppType = "app"

// Selector exposes a unit's binary and its app descriptor.
type Selector struct {
	executor ports.Executor
}

// NewSelector creates a new Selector.
func NewSelector(executor ports.Executor) *Selector {
	return &Selector{executor: executor}
}

// Select returns the build output of the unit called unit, preferring the
// workspace unit of that name. The unit's primary binary is the binary named
// after the unit, or its first binary when there is none.
func (s *Selector) Select(set *domain.PackageSet, unit string) (domain.BuildOutput, error) {
	built, ok := set.Lookup(unit)
	if !ok {
		return domain.BuildOutput{}, zerr.With(zerr.Wrap(domain.ErrUnitNotFound, unit), "unit", unit)
	}
	if len(built.Binaries) == 0 || built.StorePath == "" {
		return domain.BuildOutput{}, zerr.With(zerr.Wrap(domain.ErrNoBinaryTarget, unit), "unit", unit)
	}

	bin := built.Binaries[0]
	for _, b := range built.Binaries {
		if b == unit {
			bin = b
			break
		}
	}

	path := filepath.Join(built.StorePath, "bin", bin)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		e := zerr.With(zerr.Wrap(domain.ErrBinaryMissing, path), "unit", unit)
		return domain.BuildOutput{}, zerr.With(e, "path", path)
	}

	return domain.BuildOutput{
		Unit:       unit,
		Version:    built.Unit.Version,
		Key:        built.Key,
		BinaryPath: path,
		App: domain.AppDescriptor{
			Type:    AppType,
			Program: path,
			Args:    []string{},
		},
	}, nil
}

// Launch runs the app descriptor of output attached to stdio. The program
// receives exactly the arguments of the descriptor, which are none.
func (s *Selector) Launch(ctx context.Context, output domain.BuildOutput, stdio domain.Stdio) error {
	args := append([]string{output.App.Program}, output.App.Args...)
	return s.executor.Attach(ctx, &domain.Command{
		Name: output.Unit,
		Args: args,
	}, os.Environ(), stdio)
}
