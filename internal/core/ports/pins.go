package ports

import (
	"context"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// PinRegistry maps symbolic source names to pinned sources.
//
// A registry is a pure mapping. Substituting a different registry (for tests
// or air-gapped builds) requires no change in its consumers.
//
//go:generate mockgen -source=pins.go -destination=mocks/mock_pins.go -package=mocks
type PinRegistry interface {
	// Resolve returns the pinned source recorded under name.
	// It fails with domain.ErrUnknownSource when name is absent.
	Resolve(name string) (domain.PinnedSource, error)

	// PinSet returns a copy of the whole mapping.
	PinSet() domain.PinSet
}

// PinStore reads and updates the pins lock file.
// Updates are out-of-band operations and are never run during a build.
type PinStore interface {
	// Load reads the lock file and applies the optional overrides file on top of it.
	Load(lockPath, overridesPath string) (PinRegistry, error)

	// Add fetches the pinned tree, records its hash and writes the lock file.
	Add(ctx context.Context, lockPath string, pin domain.PinnedSource) (domain.PinnedSource, error)

	// Verify fetches the pinned tree and compares it against the recorded hash.
	Verify(ctx context.Context, pin domain.PinnedSource) error

	// Remove deletes a pin from the lock file.
	Remove(lockPath, name string) error
}
