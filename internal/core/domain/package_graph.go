// Package domain contains the core domain models of the reproducible build descriptor.
package domain

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// SourceLocal marks a unit whose sources live in the workspace.
const SourceLocal = "local"

// Unit is a buildable node of the package graph.
type Unit struct {
	ID              InternedString
	Name            InternedString
	Version         string
	Source          string
	Checksum        string
	Dependencies    []InternedString
	Binaries        []string
	NativeOverrides []InternedString
}

// IsLocal reports whether the unit belongs to the workspace.
func (u Unit) IsLocal() bool {
	return u.Source == SourceLocal
}

// PackageGraph is the dependency-resolved structure of every buildable unit.
// Units are keyed by ID ("name version").
type PackageGraph struct {
	units map[InternedString]Unit
	order []InternedString
}

// NewPackageGraph creates an empty PackageGraph.
func NewPackageGraph() *PackageGraph {
	return &PackageGraph{
		units: make(map[InternedString]Unit),
	}
}

// UnitID returns the canonical identifier of a unit.
func UnitID(name, version string) string {
	return name + " " + version
}

// AddUnit adds u to the graph.
// Adding two units with the same ID is a resolution error.
func (g *PackageGraph) AddUnit(u *Unit) error {
	if _, exists := g.units[u.ID]; exists {
		return resolutionError(fmt.Sprintf("unit %q is declared twice", u.ID.String()), "unit", u.ID.String())
	}
	g.units[u.ID] = *u
	g.order = nil
	return nil
}

// Unit returns the unit with the given ID.
func (g *PackageGraph) Unit(id string) (Unit, bool) {
	u, ok := g.units[NewInternedString(id)]
	return u, ok
}

// UnitByName returns the unit with the given name. A local unit wins over
// registry units of the same name; otherwise the name must be unambiguous.
func (g *PackageGraph) UnitByName(name string) (Unit, bool) {
	return pickByName(g.Units(), name, func(u Unit) Unit { return u })
}

// pickByName selects the unit called name from seq, which must be ordered by
// ID so that the result is stable.
func pickByName[T any](seq iter.Seq[T], name string, unit func(T) Unit) (T, bool) {
	var (
		found T
		count int
	)
	for item := range seq {
		u := unit(item)
		if u.Name.String() != name {
			continue
		}
		if u.IsLocal() {
			return item, true
		}
		found = item
		count++
	}
	if count != 1 {
		var zero T
		return zero, false
	}
	return found, true
}

// Len returns the number of units in the graph.
func (g *PackageGraph) Len() int {
	return len(g.units)
}

// Units yields every unit sorted by ID.
func (g *PackageGraph) Units() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for _, id := range g.sortedIDs() {
			if !yield(g.units[id]) {
				return
			}
		}
	}
}

func (g *PackageGraph) sortedIDs() []InternedString {
	return slices.SortedFunc(maps.Keys(g.units), func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
}

// Validate checks that every dependency edge points at a known unit and that
// the graph is acyclic. A crate may appear at several versions; each version
// is its own unit. It populates the dependency order used by Walk.
func (g *PackageGraph) Validate() error {
	ids := g.sortedIDs()
	order := make([]InternedString, 0, len(ids))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(id InternedString) error
	visit = func(id InternedString) error {
		visited[id] = 1
		path = append(path, id)

		for _, dep := range g.units[id].Dependencies {
			if _, ok := g.units[dep]; !ok {
				err := resolutionError(
					fmt.Sprintf("unit %q depends on unknown unit %q", id.String(), dep.String()),
					"unit", id.String(),
				)
				return zerr.With(err, "dependency", dep.String())
			}
			switch visited[dep] {
			case 1:
				return buildCycleError(path, dep)
			case 0:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[id] = 2
		path = path[:len(path)-1]
		order = append(order, id)
		return nil
	}

	for _, id := range ids {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	g.order = order
	return nil
}

// CheckNativeBindings verifies that every per-unit native override is bound
// in the native dependency list.
func (g *PackageGraph) CheckNativeBindings(native NativeDeps) error {
	for u := range g.Units() {
		for _, dep := range u.NativeOverrides {
			if !native.Contains(dep.String()) {
				err := resolutionError(
					fmt.Sprintf("unit %q needs native dependency %q which is not bound", u.Name.String(), dep.String()),
					"unit", u.Name.String(),
				)
				return zerr.With(err, "dependency", dep.String())
			}
		}
	}
	return nil
}

// Walk yields units in dependency order (dependencies first).
// It assumes Validate has been called and returned nil.
func (g *PackageGraph) Walk() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for _, id := range g.order {
			if !yield(g.units[id]) {
				return
			}
		}
	}
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []InternedString, dep InternedString) error {
	start := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	cycle := strings.Join(parts, " -> ")
	return zerr.With(resolutionError("dependency cycle: "+cycle, "unit", dep.String()), "cycle", cycle)
}

func resolutionError(msg, key, value string) error {
	return zerr.With(zerr.Wrap(ErrGraphResolution, msg), key, value)
}
