package domain

import (
	"iter"
	"maps"
	"slices"
	"time"
)

// BuildRequest carries every input of a package set build.
type BuildRequest struct {
	// Root is the absolute workspace root.
	Root string
	// Graph is the lockfile-derived package graph.
	Graph *PackageGraph
	// Toolchain is the resolved compiler toolchain.
	Toolchain Toolchain
	// NativeDeps are the system libraries bound to the build.
	NativeDeps NativeDeps
	// LocalPatterns select the files that belong to the local units.
	LocalPatterns []string
	// Pins is the pin set the build is evaluated against.
	Pins PinSet
	// Nixpkgs and RustOverlay name the pins the build environment is
	// evaluated from.
	Nixpkgs     string
	RustOverlay string
	// NoCache forces recompilation of local units. Existing store paths are
	// still never overwritten.
	NoCache bool
}

// BuiltUnit is one unit of a package set.
type BuiltUnit struct {
	Unit      Unit
	Key       string
	StorePath string
	Binaries  []string
	Cached    bool
}

// PackageSet is the result of building a package graph.
// Units are keyed by unit ID.
type PackageSet struct {
	Toolchain Toolchain
	Units     map[string]BuiltUnit
}

// NewPackageSet creates an empty package set for toolchain.
func NewPackageSet(toolchain Toolchain) *PackageSet {
	return &PackageSet{
		Toolchain: toolchain,
		Units:     make(map[string]BuiltUnit),
	}
}

// IDs returns the sorted unit IDs of the set.
func (s *PackageSet) IDs() []string {
	return slices.Sorted(maps.Keys(s.Units))
}

// Lookup returns the built unit called name. Local units are preferred; a
// registry crate present at several versions has no single match.
func (s *PackageSet) Lookup(name string) (BuiltUnit, bool) {
	var seq iter.Seq[BuiltUnit] = func(yield func(BuiltUnit) bool) {
		for _, id := range s.IDs() {
			if !yield(s.Units[id]) {
				return
			}
		}
	}
	return pickByName(seq, name, func(b BuiltUnit) Unit { return b.Unit })
}

// AppDescriptor pairs a binary with its invocation convention.
// Args is always empty: the app is launched with zero arguments.
type AppDescriptor struct {
	Type    string   `json:"type"`
	Program string   `json:"program"`
	Args    []string `json:"args"`
}

// BuildOutput is the selected artifact of a unit.
type BuildOutput struct {
	Unit       string        `json:"unit"`
	Version    string        `json:"version"`
	Key        string        `json:"key"`
	BinaryPath string        `json:"binaryPath"`
	App        AppDescriptor `json:"app"`
}

// PlannedUnit describes what a build would do for a unit without compiling it.
type PlannedUnit struct {
	Name    string
	Version string
	Key     string
	Local   bool
	Cached  bool
}

// BuildInfo is the persisted record of a committed unit build.
type BuildInfo struct {
	Unit      string            `json:"unit"`
	Version   string            `json:"version"`
	Key       string            `json:"key"`
	StorePath string            `json:"storePath"`
	Binaries  []string          `json:"binaries"`
	Toolchain string            `json:"toolchain"`
	Pins      map[string]string `json:"pins"`
	BuiltAt   time.Time         `json:"builtAt"`
}

// CompileRequest is handed to the external compiler for one unit.
type CompileRequest struct {
	Root      string
	Unit      Unit
	Toolchain Toolchain
	Env       []string
	OutDir    string
}
