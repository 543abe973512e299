package ports

import (
	"context"

	"go.trai.ch/pinbuild/internal/core/domain"
)

// GraphLoader reads the generated package graph.
//
//go:generate mockgen -source=graph.go -destination=mocks/mock_graph.go -package=mocks
type GraphLoader interface {
	// Load parses the graph file at path. The graph is not validated.
	Load(path string) (*domain.PackageGraph, error)
}

// GraphGenerator translates the external package manager's lockfile into a
// package graph file.
type GraphGenerator interface {
	// Generate writes the package graph of the workspace at root to out.
	// Identical lockfiles always produce byte-identical graph files.
	Generate(ctx context.Context, root string, overrides map[string][]string, out string) error
}
