package ports

import (
	"context"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// BuildInfoStore defines the interface for storing and retrieving build information.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the build info recorded for a unit.
	// Returns nil, nil if not found.
	Get(root, unit string) (*domain.BuildInfo, error)

	// Put stores the build info.
	Put(root string, info domain.BuildInfo) error
}

// ArtifactStore is the content-addressed output store.
// Paths are derived from the cache key and are never overwritten.
type ArtifactStore interface {
	// Lookup returns the store path for key and whether it is already committed.
	Lookup(root, key, name, version string) (string, bool)

	// Commit runs produce against a fresh staging directory and atomically
	// moves it to the store path. If the path already exists the staged output
	// is discarded and the existing path returned. On error nothing is left
	// behind.
	Commit(ctx context.Context, root, key, name, version string, produce func(dir string) error) (string, error)

	// Prune removes stale staging directories left behind by interrupted builds.
	// Staging directories of builds still running are kept.
	Prune(root string) error
}
