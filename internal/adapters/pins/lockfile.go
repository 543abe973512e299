package pins

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tailscale/hujson"
	"go.trai.ch/pinbuild/internal/adapters/atomicfile"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"zombiezen.com/go/nix"
)

// LockVersion is the schema version written to new lock files.
const LockVersion = 1

// lockFile is the on-disk form of the pins lock file.
type lockFile struct {
	Version int                             `json:"version"`
	Sources map[string]domain.PinnedSource `json:"sources"`
}

// ReadLock reads and validates the pins lock file at path.
func ReadLock(path string) (domain.PinSet, error) {
	//nolint:gosec // path is the configured lock file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPinsReadFailed.Error()), "path", path)
	}

	var lock lockFile
	if err := json.Unmarshal(data, &lock, json.RejectUnknownMembers(true)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPinsParseFailed.Error()), "path", path)
	}
	if lock.Version != LockVersion {
		err := zerr.With(domain.ErrPinsParseFailed, "path", path)
		return nil, zerr.With(err, "version", lock.Version)
	}

	return validate(lock.Sources)
}

// ReadOverrides reads an overrides file. Overrides use the lock file schema
// but may contain comments and trailing commas.
func ReadOverrides(path string) (domain.PinSet, error) {
	//nolint:gosec // path is given on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPinsReadFailed.Error()), "path", path)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPinsParseFailed.Error()), "path", path)
	}

	var lock lockFile
	if err := json.Unmarshal(std, &lock, json.RejectUnknownMembers(true)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPinsParseFailed.Error()), "path", path)
	}

	return validate(lock.Sources)
}

// WriteLock writes pins to path atomically. The output is deterministic: the
// same pin set always produces the same bytes.
func WriteLock(path string, pins domain.PinSet) error {
	lock := lockFile{Version: LockVersion, Sources: pins}
	if lock.Sources == nil {
		lock.Sources = domain.PinSet{}
	}

	data, err := json.Marshal(lock,
		json.Deterministic(true),
		jsontext.WithIndent("  "),
		jsontext.SpaceAfterColon(true),
	)
	if err != nil {
		return zerr.Wrap(err, domain.ErrPinsWriteFailed.Error())
	}
	data = append(data, '\n')

	if err := atomicfile.Write(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPinsWriteFailed.Error()), "path", path)
	}
	return nil
}

func validate(sources map[string]domain.PinnedSource) (domain.PinSet, error) {
	pins := make(domain.PinSet, len(sources))
	for name, pin := range sources {
		pin.Name = name
		if err := validatePin(pin); err != nil {
			return nil, err
		}
		pins[name] = pin
	}
	return pins, nil
}

func validatePin(pin domain.PinnedSource) error {
	invalid := func(reason string) error {
		return zerr.With(zerr.Wrap(domain.ErrInvalidPin, reason), "source", pin.Name)
	}

	if pin.Name == "" || strings.ContainsAny(pin.Name, " /\\@") {
		return invalid("invalid source name")
	}
	switch pin.Locator.Type {
	case domain.LocatorGitHub:
		if pin.Locator.Owner == "" || pin.Locator.Repo == "" {
			return invalid("github locator needs owner and repo")
		}
		if pin.Rev == "" {
			return invalid("missing revision")
		}
	case domain.LocatorTarball:
		if pin.Locator.URL == "" {
			return invalid("tarball locator needs a url")
		}
	default:
		return invalid("unknown locator type " + pin.Locator.Type)
	}

	if pin.Hash == "" {
		return invalid("missing hash")
	}
	h, err := nix.ParseHash(pin.Hash)
	if err != nil || h.Type() != nix.SHA256 {
		return invalid("hash must be a sha256 hash")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
