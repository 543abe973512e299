package pins

import (
	"context"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// hasher computes the content hash of a pinned tree.
type hasher interface {
	Hash(ctx context.Context, pin domain.PinnedSource) (string, error)
}

// Store implements ports.PinStore on top of the lock file.
type Store struct {
	fetcher hasher
}

// NewStore creates a new pin store using fetcher to hash pinned trees.
func NewStore(fetcher hasher) *Store {
	return &Store{fetcher: fetcher}
}

// Load reads the lock file and applies the overrides file, if any.
func (s *Store) Load(lockPath, overridesPath string) (ports.PinRegistry, error) {
	pins, err := ReadLock(lockPath)
	if err != nil {
		return nil, err
	}
	registry := NewRegistry(pins)

	if overridesPath == "" {
		return registry, nil
	}
	overrides, err := ReadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}
	return registry.WithOverrides(overrides), nil
}

// Add records pin in the lock file. A pin without a hash is fetched and hashed;
// a pin with a hash is verified against the fetched tree first.
func (s *Store) Add(ctx context.Context, lockPath string, pin domain.PinnedSource) (domain.PinnedSource, error) {
	pins := domain.PinSet{}
	if fileExists(lockPath) {
		existing, err := ReadLock(lockPath)
		if err != nil {
			return domain.PinnedSource{}, err
		}
		pins = existing
	}

	hash, err := s.fetcher.Hash(ctx, pin)
	if err != nil {
		return domain.PinnedSource{}, err
	}
	if pin.Hash != "" && pin.Hash != hash {
		return domain.PinnedSource{}, mismatch(pin, hash)
	}
	pin.Hash = hash

	if err := validatePin(pin); err != nil {
		return domain.PinnedSource{}, err
	}

	pins[pin.Name] = pin
	if err := WriteLock(lockPath, pins); err != nil {
		return domain.PinnedSource{}, err
	}
	return pin, nil
}

// Verify refetches pin and checks its hash.
func (s *Store) Verify(ctx context.Context, pin domain.PinnedSource) error {
	hash, err := s.fetcher.Hash(ctx, pin)
	if err != nil {
		return err
	}
	if hash != pin.Hash {
		return mismatch(pin, hash)
	}
	return nil
}

// Remove deletes name from the lock file.
func (s *Store) Remove(lockPath, name string) error {
	pins, err := ReadLock(lockPath)
	if err != nil {
		return err
	}
	if _, ok := pins[name]; !ok {
		return zerr.With(zerr.Wrap(domain.ErrUnknownSource, name), "source", name)
	}
	delete(pins, name)
	return WriteLock(lockPath, pins)
}

func mismatch(pin domain.PinnedSource, got string) error {
	err := zerr.With(zerr.Wrap(domain.ErrPinHashMismatch, pin.Name), "source", pin.Name)
	err = zerr.With(err, "expected", pin.Hash)
	return zerr.With(err, "got", got)
}
