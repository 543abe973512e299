package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/cas"
	"go.trai.ch/pinbuild/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()

	info := domain.BuildInfo{
		Unit:      "cign",
		Version:   "0.3.1",
		Key:       "0123456789abcdfghijklmnpqrsvwxyz",
		StorePath: "/tmp/store/x",
		Binaries:  []string{"cign"},
		Toolchain: "stable@1.74.0",
		Pins:      map[string]string{"nixpkgs": "sha256-abc"},
		BuiltAt:   time.Now().UTC().Truncate(time.Second),
	}

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, store.Put(root, info))

		got, err := store.Get(root, "cign")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, info, *got)
	})

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		got, err := store.Get(root, "missing-unit")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_PutReplaces(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()

	require.NoError(t, store.Put(root, domain.BuildInfo{Unit: "cign", Key: "old"}))
	require.NoError(t, store.Put(root, domain.BuildInfo{Unit: "cign", Key: "new"}))

	got, err := store.Get(root, "cign")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Key)

	entries, err := os.ReadDir(filepath.Join(root, domain.DefaultInfoPath()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStore_GetCorrupt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()
	require.NoError(t, store.Put(root, domain.BuildInfo{Unit: "cign"}))

	dir := filepath.Join(root, domain.DefaultInfoPath())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	err = os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{ invalid json"), 0o600)
	require.NoError(t, err)

	_, err = store.Get(root, "cign")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrStoreUnmarshalFailed.Error())
}
