package domain

import "strings"

// ShellEnvironment is a composed development environment.
// Vars are "KEY=VALUE" entries; Path is the ordered search path the
// environment contributes in front of the caller's PATH.
type ShellEnvironment struct {
	ID   string
	Vars []string
	Path []string
}

// Lookup returns the value of key in the environment.
func (e ShellEnvironment) Lookup(key string) (string, bool) {
	for _, kv := range e.Vars {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

// EnvSpec describes the packages an environment is materialised from.
// Nixpkgs and RustOverlay name the pins of the base package collection and of
// the toolchain overlay.
type EnvSpec struct {
	Pins        PinSet
	Nixpkgs     string
	RustOverlay string
	Toolchain   Toolchain
	Packages    []string
}

// ID returns the cache identifier of the environment.
func (s EnvSpec) ID() string {
	return GenerateEnvID(s.Pins, s.Toolchain, s.Packages)
}
