// Package cargo translates Cargo workspaces into package graphs and compiles
// their units.
package cargo

import (
	"os"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.trai.ch/pinbuild/internal/adapters/atomicfile"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// GraphVersion is the schema version of generated graph files.
const GraphVersion = 1

type graphFile struct {
	Version int         `json:"version"`
	Units   []graphUnit `json:"units"`
}

type graphUnit struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Source       string   `json:"source"`
	Checksum     string   `json:"checksum,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Binaries     []string `json:"binaries,omitempty"`
	NativeDeps   []string `json:"nativeDeps,omitempty"`
}

// Loader implements ports.GraphLoader for generated graph files.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the graph file at path. Units are added as written; callers
// validate the graph before building from it.
func (l *Loader) Load(path string) (*domain.PackageGraph, error) {
	//nolint:gosec // path is the configured graph file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrGraphReadFailed.Error()), "path", path)
	}

	var file graphFile
	if err := json.Unmarshal(data, &file, json.RejectUnknownMembers(true)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrGraphParseFailed.Error()), "path", path)
	}
	if file.Version != GraphVersion {
		err := zerr.With(domain.ErrGraphParseFailed, "path", path)
		return nil, zerr.With(err, "version", file.Version)
	}

	graph := domain.NewPackageGraph()
	for _, gu := range file.Units {
		if gu.Name == "" || gu.Version == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrGraphParseFailed, "unit without name or version"), "path", path)
		}
		u := &domain.Unit{
			ID:              domain.NewInternedString(domain.UnitID(gu.Name, gu.Version)),
			Name:            domain.NewInternedString(gu.Name),
			Version:         gu.Version,
			Source:          gu.Source,
			Checksum:        gu.Checksum,
			Dependencies:    domain.NewInternedStrings(gu.Dependencies),
			Binaries:        slices.Clone(gu.Binaries),
			NativeOverrides: domain.NewInternedStrings(gu.NativeDeps),
		}
		if err := graph.AddUnit(u); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

// encodeGraph renders units as a graph file. Units and every list inside
// them are sorted, so equal inputs encode to equal bytes.
func encodeGraph(units []graphUnit) ([]byte, error) {
	for i := range units {
		slices.Sort(units[i].Dependencies)
		units[i].Dependencies = slices.Compact(units[i].Dependencies)
		slices.Sort(units[i].Binaries)
		slices.Sort(units[i].NativeDeps)
		units[i].NativeDeps = slices.Compact(units[i].NativeDeps)
	}
	slices.SortFunc(units, func(a, b graphUnit) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Version, b.Version)
	})

	data, err := json.Marshal(graphFile{Version: GraphVersion, Units: units},
		json.Deterministic(true),
		jsontext.WithIndent("  "),
		jsontext.SpaceAfterColon(true),
	)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func writeGraph(path string, units []graphUnit) error {
	data, err := encodeGraph(units)
	if err != nil {
		return zerr.Wrap(err, domain.ErrGraphGenerateFailed.Error())
	}
	if err := atomicfile.Write(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrGraphGenerateFailed.Error()), "path", path)
	}
	return nil
}
