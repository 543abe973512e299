package watcher

import (
	"path/filepath"
	"strings"

	"go.trai.ch/pinbuild/internal/adapters/fs"
)

// Relevant reports whether a change at path can affect a local unit, that is
// whether path lies under root and is selected by patterns.
func Relevant(root string, patterns []string, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return fs.Selected(patterns, rel)
}
