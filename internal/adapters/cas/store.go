// Package cas implements the content-addressed artifact store and the build
// info records kept next to it.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/pinbuild/internal/adapters/atomicfile"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.BuildInfoStore using a file-per-unit strategy.
type Store struct{}

// NewStore creates a new BuildInfoStore. All operations take the workspace root.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the build info recorded for a unit.
func (s *Store) Get(root, unit string) (*domain.BuildInfo, error) {
	filename := s.getFilename(root, unit)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var info domain.BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
	}

	return &info, nil
}

// Put stores the build info, replacing the previous record of the unit.
func (s *Store) Put(root string, info domain.BuildInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	filename := s.getFilename(root, info.Unit)
	if err := atomicfile.Write(filename, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	return nil
}

func (s *Store) getFilename(root, unit string) string {
	hash := sha256.Sum256([]byte(unit))
	return filepath.Join(root, domain.DefaultInfoPath(), hex.EncodeToString(hash[:])+".json")
}
