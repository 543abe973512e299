package builder

import (
	"crypto/sha256"
	"io"
	"maps"
	"slices"

	"go.trai.ch/pinbuild/internal/core/domain"
	"zombiezen.com/go/nix"
	"zombiezen.com/go/nix/nixbase32"
)

// KeyInputs are the values a unit's cache key is computed from.
type KeyInputs struct {
	Unit       domain.Unit
	Toolchain  domain.Toolchain
	NativeDeps domain.NativeDeps
	Pins       domain.PinSet
	// DepKeys are the keys of the unit's direct dependencies. Each of them
	// covers its own dependencies, so the key is transitive.
	DepKeys []string
	// LocalHash is the digest of the workspace sources of a local unit.
	LocalHash string
}

// UnitKey returns the 32 character nix base32 cache key of a unit.
func UnitKey(in KeyInputs) string {
	h := sha256.New()
	field := func(name, value string) {
		_, _ = io.WriteString(h, name)
		_, _ = io.WriteString(h, "=")
		_, _ = io.WriteString(h, value)
		_, _ = io.WriteString(h, "\n")
	}

	field("name", in.Unit.Name.String())
	field("version", in.Unit.Version)
	field("source", in.Unit.Source)
	field("checksum", in.Unit.Checksum)
	field("toolchain", in.Toolchain.Identity())
	for _, dep := range in.NativeDeps.Names() {
		field("native", dep)
	}
	for _, dep := range domain.SortedStrings(in.Unit.NativeOverrides) {
		field("override", dep)
	}
	for _, name := range slices.Sorted(maps.Keys(in.Pins)) {
		field("pin", name+"@"+in.Pins[name].Hash)
	}
	depKeys := slices.Clone(in.DepKeys)
	slices.Sort(depKeys)
	for _, k := range depKeys {
		field("dep", k)
	}
	if in.Unit.IsLocal() {
		field("local", in.LocalHash)
	}

	compressed := make([]byte, 20)
	nix.CompressHash(compressed, h.Sum(nil))
	return nixbase32.EncodeToString(compressed)
}
