package cas

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

const stagingPrefix = ".staging-"

// StaleStagingAge is how long a staging directory must go unmodified before
// Prune treats the build that created it as dead. Younger ones may belong to
// a build still running in another process.
const StaleStagingAge = 24 * time.Hour

// Artifacts implements ports.ArtifactStore.
//
// A store path is <root>/.pinbuild/store/<key>-<name>-<version>. Outputs are
// produced in a staging directory and renamed into place; a committed path is
// never modified again.
type Artifacts struct{}

// NewArtifacts creates a new ArtifactStore.
func NewArtifacts() *Artifacts {
	return &Artifacts{}
}

// Path returns the store path for the given key without touching the disk.
func (a *Artifacts) Path(root, key, name, version string) string {
	return filepath.Join(root, domain.DefaultStorePath(), key+"-"+name+"-"+version)
}

// Lookup reports whether the store path of key is committed.
func (a *Artifacts) Lookup(root, key, name, version string) (string, bool) {
	path := a.Path(root, key, name, version)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, false
	}
	return path, true
}

// Commit produces an output into staging and moves it to the store path.
func (a *Artifacts) Commit(
	ctx context.Context,
	root, key, name, version string,
	produce func(dir string) error,
) (string, error) {
	final, ok := a.Lookup(root, key, name, version)
	if ok {
		return final, nil
	}

	storeDir := filepath.Dir(final)
	if err := os.MkdirAll(storeDir, domain.DirPerm); err != nil {
		return "", zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	staging, err := os.MkdirTemp(storeDir, stagingPrefix+key+"-*")
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := produce(staging); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := seal(staging); err != nil {
		return "", zerr.Wrap(err, domain.ErrStoreCommitFailed.Error())
	}

	if err := os.Rename(staging, final); err != nil {
		// A concurrent build committed the same key first.
		if _, ok := a.Lookup(root, key, name, version); ok {
			return final, nil
		}
		return "", zerr.With(zerr.Wrap(err, domain.ErrStoreCommitFailed.Error()), "store_path", final)
	}
	committed = true

	return final, nil
}

// Prune removes staging directories left behind by killed builds. Only
// directories untouched for StaleStagingAge are removed.
func (a *Artifacts) Prune(root string) error {
	matches, err := filepath.Glob(filepath.Join(root, domain.DefaultStorePath(), stagingPrefix+"*"))
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-StaleStagingAge)
	for _, m := range matches {
		info, err := os.Stat(m)
		if errors.Is(err, fs.ErrNotExist) {
			// Committed or cleaned up by its own build meanwhile.
			continue
		}
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(m); err != nil {
			return err
		}
	}
	return nil
}

// seal makes every regular file of dir read-only, keeping executables executable.
func seal(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mode := os.FileMode(0o444)
		if info.Mode()&0o111 != 0 {
			mode = domain.ArtifactPerm
		}
		return os.Chmod(path, mode)
	})
}
