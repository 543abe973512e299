package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// GenerateEnvID returns a deterministic identifier for an environment made
// of the given pins, toolchain and packages. Every pin hash is part of the
// identifier so that a pin change never reuses a stale environment.
func GenerateEnvID(pins PinSet, toolchain Toolchain, packages []string) string {
	h := sha256.New()
	for _, name := range pins.Names() {
		p := pins[name]
		h.Write([]byte("pin:" + name + "=" + p.Rev + "#" + p.Hash + "\x00"))
	}
	h.Write([]byte("toolchain:" + toolchain.Identity() + "\x00"))

	sorted := slices.Clone(packages)
	slices.Sort(sorted)
	for _, pkg := range slices.Compact(sorted) {
		h.Write([]byte("pkg:" + pkg + "\x00"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
