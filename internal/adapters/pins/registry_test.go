package pins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/pins"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	hashA = "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
	hashB = "sha256-BAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
)

func nixpkgsPin(hash string) domain.PinnedSource {
	return domain.PinnedSource{
		Locator: domain.Locator{Type: domain.LocatorGitHub, Owner: "NixOS", Repo: "nixpkgs"},
		Rev:     "057f9aecfb71c4437d2b27d3323df7f93c010b7e",
		Hash:    hash,
	}
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	r := pins.NewRegistry(domain.PinSet{"nixpkgs": nixpkgsPin(hashA)})

	first, err := r.Resolve("nixpkgs")
	require.NoError(t, err)
	assert.Equal(t, "nixpkgs", first.Name)
	assert.Equal(t, hashA, first.Hash)

	for range 5 {
		again, err := r.Resolve("nixpkgs")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	t.Parallel()

	r := pins.NewRegistry(domain.PinSet{"nixpkgs": nixpkgsPin(hashA)})

	_, err := r.Resolve("cargo2nix")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrUnknownSource.Error())
	assert.ErrorContains(t, err, "cargo2nix")

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "cargo2nix", zErr.Metadata()["source"])
}

func TestRegistry_WithOverrides(t *testing.T) {
	t.Parallel()

	base := pins.NewRegistry(domain.PinSet{
		"nixpkgs":         nixpkgsPin(hashA),
		"nixpkgs-mozilla": nixpkgsPin(hashA),
	})

	local := nixpkgsPin(hashB)
	local.Locator = domain.Locator{Type: domain.LocatorTarball, URL: "file:///srv/mirror/nixpkgs.tar.gz"}
	overridden := base.WithOverrides(domain.PinSet{"nixpkgs": local})

	got, err := overridden.Resolve("nixpkgs")
	require.NoError(t, err)
	assert.Equal(t, hashB, got.Hash)
	assert.Equal(t, "file:///srv/mirror/nixpkgs.tar.gz", got.FetchURL())

	untouched, err := overridden.Resolve("nixpkgs-mozilla")
	require.NoError(t, err)
	assert.Equal(t, hashA, untouched.Hash)

	orig, err := base.Resolve("nixpkgs")
	require.NoError(t, err)
	assert.Equal(t, hashA, orig.Hash, "overrides must not mutate the base registry")
}

func TestRegistry_PinSetIsCopy(t *testing.T) {
	t.Parallel()

	r := pins.NewRegistry(domain.PinSet{"nixpkgs": nixpkgsPin(hashA)})
	set := r.PinSet()
	delete(set, "nixpkgs")

	_, err := r.Resolve("nixpkgs")
	require.NoError(t, err)
	assert.Equal(t, []string{"nixpkgs"}, r.Names())
}
