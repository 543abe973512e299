package cargo

import (
	"io"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// metadata is the subset of `cargo metadata --format-version 1` output the
// graph is built from.
type metadata struct {
	Packages         []metadataPackage `json:"packages"`
	WorkspaceMembers []string          `json:"workspace_members"`
	Resolve          *metadataResolve  `json:"resolve"`
}

type metadataPackage struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Version string           `json:"version"`
	Source  string           `json:"source"`
	Targets []metadataTarget `json:"targets"`
}

type metadataTarget struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

type metadataResolve struct {
	Nodes []metadataNode `json:"nodes"`
}

type metadataNode struct {
	ID   string        `json:"id"`
	Deps []metadataDep `json:"deps"`
}

type metadataDep struct {
	Pkg      string            `json:"pkg"`
	DepKinds []metadataDepKind `json:"dep_kinds"`
}

type metadataDepKind struct {
	Kind string `json:"kind"`
}

// runtimeDep reports whether the edge is needed to build the dependent.
// Edges used only by tests and benches are dropped; they may form cycles.
func (d metadataDep) runtimeDep() bool {
	if len(d.DepKinds) == 0 {
		return true
	}
	for _, k := range d.DepKinds {
		if k.Kind != "dev" {
			return true
		}
	}
	return false
}

func parseMetadata(data []byte) (*metadata, error) {
	var md metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	if md.Resolve == nil {
		return nil, zerr.New("cargo metadata has no resolve section")
	}
	return &md, nil
}

// translate converts cargo metadata into graph units. checksums are keyed by
// unit ID; overrides map unit names to the native dependencies they link.
func translate(md *metadata, checksums map[string]string, overrides map[string][]string) []graphUnit {
	byID := make(map[string]metadataPackage, len(md.Packages))
	for _, p := range md.Packages {
		byID[p.ID] = p
	}

	units := make([]graphUnit, 0, len(md.Resolve.Nodes))
	for _, node := range md.Resolve.Nodes {
		pkg, ok := byID[node.ID]
		if !ok {
			continue
		}

		gu := graphUnit{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Checksum: checksums[domain.UnitID(pkg.Name, pkg.Version)],
		}
		if gu.Source == "" {
			gu.Source = domain.SourceLocal
			gu.Binaries = binaries(pkg)
		}
		for _, dep := range node.Deps {
			if !dep.runtimeDep() {
				continue
			}
			if target, ok := byID[dep.Pkg]; ok {
				gu.Dependencies = append(gu.Dependencies, domain.UnitID(target.Name, target.Version))
			}
		}
		gu.NativeDeps = slices.Clone(overrides[pkg.Name])

		units = append(units, gu)
	}

	return units
}

func binaries(pkg metadataPackage) []string {
	var bins []string
	for _, t := range pkg.Targets {
		if slices.Contains(t.Kind, "bin") {
			bins = append(bins, t.Name)
		}
	}
	return bins
}

// lockfile is the subset of Cargo.lock the generator reads. Version 1
// lockfiles keep checksums in the metadata table under
// "checksum <name> <version> (<source>)" keys instead of on each package.
type lockfile struct {
	Packages []lockPackage    `toml:"package"`
	Metadata map[string]string `toml:"metadata"`
}

type lockPackage struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Source   string `toml:"source"`
	Checksum string `toml:"checksum"`
}

// noChecksum is what version 1 lockfiles record for sources without one.
const noChecksum = "<none>"

// readLockChecksums decodes a Cargo.lock and returns the registry checksum
// of every package, keyed by unit ID.
func readLockChecksums(r io.Reader) (map[string]string, error) {
	var lf lockfile
	if err := toml.NewDecoder(r).Decode(&lf); err != nil {
		return nil, err
	}

	checksums := make(map[string]string)
	for key, sum := range lf.Metadata {
		spec, ok := strings.CutPrefix(key, "checksum ")
		if !ok || sum == noChecksum {
			continue
		}
		if fields := strings.Fields(spec); len(fields) >= 2 {
			checksums[domain.UnitID(fields[0], fields[1])] = sum
		}
	}
	for _, p := range lf.Packages {
		if p.Checksum != "" && p.Checksum != noChecksum {
			checksums[domain.UnitID(p.Name, p.Version)] = p.Checksum
		}
	}
	return checksums, nil
}
