package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/fs"
)

var localPatterns = []string{"Cargo.toml", "Cargo.lock", "src/**"}

func workspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "Cargo.toml", "[package]\nname = \"cign\"\n")
	writeFile(t, root, "Cargo.lock", "version = 3\n")
	writeFile(t, root, "src/main.rs", "fn main() {}\n")
	writeFile(t, root, "README.md", "# cign\n")
	return root
}

func hashOf(t *testing.T, root string) string {
	t.Helper()
	h, err := fs.NewHasher(fs.NewWalker()).HashLocalSources(root, localPatterns)
	require.NoError(t, err)
	return h
}

func TestHasher_HashLocalSources_Stable(t *testing.T) {
	first := hashOf(t, workspace(t))
	second := hashOf(t, workspace(t))

	assert.Len(t, first, 16)
	assert.Equal(t, first, second, "the digest must not depend on the workspace location")
}

func TestHasher_HashLocalSources_TracksSelectedFiles(t *testing.T) {
	root := workspace(t)
	base := hashOf(t, root)

	writeFile(t, root, "README.md", "# cign, now with docs\n")
	assert.Equal(t, base, hashOf(t, root), "unselected files must not affect the digest")

	writeFile(t, root, "src/main.rs", "fn main() { println!(\"hi\"); }\n")
	changed := hashOf(t, root)
	assert.NotEqual(t, base, changed)

	writeFile(t, root, "src/lib.rs", "")
	added := hashOf(t, root)
	assert.NotEqual(t, changed, added)

	require.NoError(t, os.Rename(filepath.Join(root, "src", "lib.rs"), filepath.Join(root, "src", "util.rs")))
	assert.NotEqual(t, added, hashOf(t, root), "renames must change the digest")
}

func TestHasher_HashLocalSources_ExecutableBit(t *testing.T) {
	root := workspace(t)
	base := hashOf(t, root)

	//nolint:gosec // the test flips the executable bit on purpose
	require.NoError(t, os.Chmod(filepath.Join(root, "src", "main.rs"), 0o700))
	assert.NotEqual(t, base, hashOf(t, root))
}

func TestHasher_HashLocalSources_PatternsAreInputs(t *testing.T) {
	root := workspace(t)
	hasher := fs.NewHasher(fs.NewWalker())

	a, err := hasher.HashLocalSources(root, []string{"src/**"})
	require.NoError(t, err)
	b, err := hasher.HashLocalSources(root, []string{"src/**", "docs/**"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_ComputeFileHash_Missing(t *testing.T) {
	_, err := fs.NewHasher(fs.NewWalker()).ComputeFileHash(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to open file")
}
