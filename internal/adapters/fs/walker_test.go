package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/fs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWalker_WalkFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "Cargo.toml", "[package]")
	writeFile(t, tmpDir, "src/main.rs", "fn main() {}")
	writeFile(t, tmpDir, "src/cli/args.rs", "")

	var files []string
	for path := range fs.NewWalker().WalkFiles(tmpDir, nil) {
		files = append(files, path)
	}

	assert.Equal(t, []string{
		filepath.Join(tmpDir, "Cargo.toml"),
		filepath.Join(tmpDir, "src", "cli", "args.rs"),
		filepath.Join(tmpDir, "src", "main.rs"),
	}, files)
}

func TestWalker_WalkFiles_SkipsStateDirs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, ".git/config", "gitconfig")
	writeFile(t, tmpDir, ".jj/store", "jjstore")
	writeFile(t, tmpDir, ".pinbuild/store/info/x.json", "{}")
	writeFile(t, tmpDir, "target/release/cign", "ELF")
	writeFile(t, tmpDir, "src/main.rs", "fn main() {}")

	var files []string
	for path := range fs.NewWalker().WalkFiles(tmpDir, nil) {
		files = append(files, path)
	}

	assert.Equal(t, []string{filepath.Join(tmpDir, "src", "main.rs")}, files)
}

func TestWalker_WalkFiles_Ignores(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "src/main.rs", "")
	writeFile(t, tmpDir, "src/main.rs.orig", "")
	writeFile(t, tmpDir, "node_modules/x/index.js", "")

	var files []string
	for path := range fs.NewWalker().WalkFiles(tmpDir, []string{"*.orig", "node_modules"}) {
		files = append(files, path)
	}

	assert.Equal(t, []string{filepath.Join(tmpDir, "src", "main.rs")}, files)
}

func TestWalker_WalkFiles_EarlyStop(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, tmpDir, name, "")
	}

	var files []string
	for path := range fs.NewWalker().WalkFiles(tmpDir, nil) {
		files = append(files, path)
		break
	}
	assert.Len(t, files, 1)
	assert.True(t, slices.Contains(files, filepath.Join(tmpDir, "a")))
}
