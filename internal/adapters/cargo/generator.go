package cargo

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// metadataRunner returns the `cargo metadata` document of the workspace at root.
type metadataRunner func(ctx context.Context, root string) ([]byte, error)

// Generator implements ports.GraphGenerator from Cargo.lock and cargo metadata.
type Generator struct {
	runMetadata metadataRunner
}

// NewGenerator creates a new Generator that invokes cargo from PATH.
func NewGenerator() *Generator {
	return &Generator{runMetadata: cargoMetadata}
}

// Generate resolves the workspace at root with the locked dependency set and
// writes the package graph to out. overrides bind unit names to the native
// dependencies they link against.
func (g *Generator) Generate(ctx context.Context, root string, overrides map[string][]string, out string) error {
	lockPath := filepath.Join(root, "Cargo.lock")
	//nolint:gosec // Cargo.lock of the workspace
	lock, err := os.Open(lockPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrGraphGenerateFailed.Error()), "path", lockPath)
	}
	checksums, err := readLockChecksums(lock)
	_ = lock.Close()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrGraphGenerateFailed.Error()), "path", lockPath)
	}

	data, err := g.runMetadata(ctx, root)
	if err != nil {
		return zerr.Wrap(err, domain.ErrGraphGenerateFailed.Error())
	}

	md, err := parseMetadata(data)
	if err != nil {
		return zerr.Wrap(err, domain.ErrGraphGenerateFailed.Error())
	}

	return writeGraph(out, translate(md, checksums, overrides))
}

func cargoMetadata(ctx context.Context, root string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "cargo", "metadata", "--format-version", "1", "--locked")
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "cargo metadata failed"), "stderr", strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
