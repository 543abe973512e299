package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

func unit(name, version string, deps ...string) *domain.Unit {
	return &domain.Unit{
		ID:           domain.NewInternedString(domain.UnitID(name, version)),
		Name:         domain.NewInternedString(name),
		Version:      version,
		Source:       "registry+https://github.com/rust-lang/crates.io-index",
		Dependencies: domain.NewInternedStrings(deps),
	}
}

func TestPackageGraph_Validate(t *testing.T) {
	tests := []struct {
		name        string
		units       []*domain.Unit
		errContains []string
		metaKey     string
		metaValue   string
	}{
		{
			name: "valid chain",
			units: []*domain.Unit{
				unit("cign", "0.3.1", "git2 0.18.1"),
				unit("git2", "0.18.1", "libgit2-sys 0.16.1"),
				unit("libgit2-sys", "0.16.1"),
			},
		},
		{
			name: "self cycle",
			units: []*domain.Unit{
				unit("a", "1.0.0", "a 1.0.0"),
			},
			errContains: []string{domain.ErrGraphResolution.Error(), "a 1.0.0 -> a 1.0.0"},
			metaKey:     "cycle",
			metaValue:   "a 1.0.0 -> a 1.0.0",
		},
		{
			name: "three node cycle",
			units: []*domain.Unit{
				unit("a", "1.0.0", "b 1.0.0"),
				unit("b", "1.0.0", "c 1.0.0"),
				unit("c", "1.0.0", "a 1.0.0"),
			},
			errContains: []string{"dependency cycle"},
			metaKey:     "cycle",
			metaValue:   "a 1.0.0 -> b 1.0.0 -> c 1.0.0 -> a 1.0.0",
		},
		{
			name: "dangling dependency",
			units: []*domain.Unit{
				unit("cign", "0.3.1", "serde 1.0.190"),
			},
			errContains: []string{domain.ErrGraphResolution.Error(), "serde 1.0.190"},
			metaKey:     "dependency",
			metaValue:   "serde 1.0.190",
		},
		{
			name: "one crate at two versions",
			units: []*domain.Unit{
				unit("cign", "0.3.1", "bitflags 1.3.2", "bitflags 2.4.1"),
				unit("bitflags", "1.3.2"),
				unit("bitflags", "2.4.1"),
			},
		},
		{
			name: "dangling edge to missing version",
			units: []*domain.Unit{
				unit("cign", "0.3.1", "bitflags 2.4.1"),
				unit("bitflags", "1.3.2"),
			},
			errContains: []string{domain.ErrGraphResolution.Error(), "bitflags 2.4.1"},
			metaKey:     "dependency",
			metaValue:   "bitflags 2.4.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewPackageGraph()
			for _, u := range tt.units {
				require.NoError(t, g.AddUnit(u))
			}

			err := g.Validate()
			if len(tt.errContains) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			for _, s := range tt.errContains {
				assert.ErrorContains(t, err, s)
			}

			zErr, ok := err.(*zerr.Error)
			require.True(t, ok, "expected *zerr.Error, got %T", err)
			assert.Equal(t, tt.metaValue, zErr.Metadata()[tt.metaKey])
		})
	}
}

func TestPackageGraph_AddUnitDuplicate(t *testing.T) {
	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(unit("cign", "0.3.1")))

	err := g.AddUnit(unit("cign", "0.3.1"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrGraphResolution.Error())
	assert.ErrorContains(t, err, "declared twice")
}

func TestPackageGraph_WalkOrder(t *testing.T) {
	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(unit("cign", "0.3.1", "git2 0.18.1", "clap 4.4.8")))
	require.NoError(t, g.AddUnit(unit("git2", "0.18.1", "libc 0.2.150")))
	require.NoError(t, g.AddUnit(unit("clap", "4.4.8")))
	require.NoError(t, g.AddUnit(unit("libc", "0.2.150")))
	require.NoError(t, g.Validate())

	pos := make(map[string]int)
	i := 0
	for u := range g.Walk() {
		pos[u.Name.String()] = i
		i++
	}

	require.Len(t, pos, 4)
	assert.Less(t, pos["libc"], pos["git2"])
	assert.Less(t, pos["git2"], pos["cign"])
	assert.Less(t, pos["clap"], pos["cign"])
}

func TestPackageGraph_WalkTwoVersions(t *testing.T) {
	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(unit("cign", "0.3.1", "syn 1.0.109", "thiserror-impl 1.0.50")))
	require.NoError(t, g.AddUnit(unit("thiserror-impl", "1.0.50", "syn 2.0.39")))
	require.NoError(t, g.AddUnit(unit("syn", "1.0.109")))
	require.NoError(t, g.AddUnit(unit("syn", "2.0.39")))
	require.NoError(t, g.Validate())

	pos := make(map[string]int)
	i := 0
	for u := range g.Walk() {
		pos[u.ID.String()] = i
		i++
	}

	require.Len(t, pos, 4)
	assert.Less(t, pos["syn 1.0.109"], pos["cign 0.3.1"])
	assert.Less(t, pos["syn 2.0.39"], pos["thiserror-impl 1.0.50"])
	assert.Less(t, pos["thiserror-impl 1.0.50"], pos["cign 0.3.1"])
}

func TestPackageGraph_WalkDeterministic(t *testing.T) {
	build := func() []string {
		g := domain.NewPackageGraph()
		for _, n := range []string{"e", "d", "c", "b", "a"} {
			require.NoError(t, g.AddUnit(unit(n, "1.0.0")))
		}
		require.NoError(t, g.Validate())
		var names []string
		for u := range g.Walk() {
			names = append(names, u.Name.String())
		}
		return names
	}

	first := build()
	for range 10 {
		assert.Equal(t, first, build())
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, first)
}

func TestPackageGraph_CheckNativeBindings(t *testing.T) {
	g := domain.NewPackageGraph()
	sys := unit("openssl-sys", "0.9.96")
	sys.NativeOverrides = domain.NewInternedStrings([]string{"openssl", "pkg-config"})
	require.NoError(t, g.AddUnit(sys))

	t.Run("bound", func(t *testing.T) {
		require.NoError(t, g.CheckNativeBindings(domain.NewNativeDeps("zlib", "pkg-config", "openssl")))
	})

	t.Run("missing binding", func(t *testing.T) {
		err := g.CheckNativeBindings(domain.NewNativeDeps("openssl"))
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrGraphResolution.Error())
		assert.ErrorContains(t, err, "pkg-config")

		zErr, ok := err.(*zerr.Error)
		require.True(t, ok)
		assert.Equal(t, "openssl-sys", zErr.Metadata()["unit"])
		assert.Equal(t, "pkg-config", zErr.Metadata()["dependency"])
	})
}

func TestPackageGraph_Lookup(t *testing.T) {
	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(unit("cign", "0.3.1")))

	u, ok := g.UnitByName("cign")
	require.True(t, ok)
	assert.Equal(t, "0.3.1", u.Version)

	_, ok = g.Unit("cign 0.3.1")
	assert.True(t, ok)

	_, ok = g.UnitByName("nonexistent")
	assert.False(t, ok)
	assert.Equal(t, 1, g.Len())
}

func TestPackageGraph_UnitByNameAmbiguous(t *testing.T) {
	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(unit("syn", "1.0.109")))
	require.NoError(t, g.AddUnit(unit("syn", "2.0.39")))

	_, ok := g.UnitByName("syn")
	assert.False(t, ok, "a registry crate at two versions has no single match")

	local := unit("syn", "0.1.0")
	local.Source = domain.SourceLocal
	require.NoError(t, g.AddUnit(local))

	u, ok := g.UnitByName("syn")
	require.True(t, ok)
	assert.Equal(t, "0.1.0", u.Version)
}
