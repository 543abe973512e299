package cargo

import (
	"context"
	"io"
)

// NewGeneratorForTest creates a Generator that reads metadata from run.
func NewGeneratorForTest(run func(ctx context.Context, root string) ([]byte, error)) *Generator {
	return &Generator{runMetadata: run}
}

// CrossTargetForTest exports crossTarget for testing.
func CrossTargetForTest(targets []string, host string) (string, error) {
	return crossTarget(targets, host)
}

// ReadLockChecksumsForTest exports readLockChecksums for testing.
func ReadLockChecksumsForTest(r io.Reader) (map[string]string, error) {
	return readLockChecksums(r)
}
