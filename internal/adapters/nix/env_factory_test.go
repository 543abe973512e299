package nix_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/nix"
	"go.trai.ch/pinbuild/internal/core/domain"
)

const devEnvJSON = `{
  "variables": {
    "PATH": {"type": "exported", "value": "/nix/store/aaa-rust-1.74.0/bin:/nix/store/bbb-pkg-config/bin"},
    "PKG_CONFIG_PATH": {"type": "exported", "value": "/nix/store/ccc-openssl-dev/lib/pkgconfig"},
    "HOME": {"type": "exported", "value": "/homeless-shelter"},
    "TMPDIR": {"type": "exported", "value": "/build"},
    "buildInputs": {"type": "var", "value": "/nix/store/ccc-openssl-dev"},
    "NIX_CFLAGS_COMPILE": {"type": "exported", "value": ["-isystem", "/nix/store/ccc-openssl-dev/include"]},
    "FUNCS": {"type": "associative", "value": {"a": "b"}}
  }
}`

func testSpec() domain.EnvSpec {
	return domain.EnvSpec{
		Pins: domain.PinSet{
			"nixpkgs": {
				Name:    "nixpkgs",
				Locator: domain.Locator{Type: domain.LocatorGitHub, Owner: "NixOS", Repo: "nixpkgs"},
				Rev:     "057f9aecfb71c4437d2b27d3323df7f93c010b7e",
				Hash:    "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
			},
			"nixpkgs-mozilla": {
				Name:    "nixpkgs-mozilla",
				Locator: domain.Locator{Type: domain.LocatorGitHub, Owner: "mozilla", Repo: "nixpkgs-mozilla"},
				Rev:     "e1f7540fc0a8b989fb8cf701dc4fd7fc76bcf168",
				Hash:    "sha256-BAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
			},
		},
		Nixpkgs:     "nixpkgs",
		RustOverlay: "nixpkgs-mozilla",
		Toolchain: domain.Toolchain{
			Channel:      "stable",
			Version:      "1.74.0",
			Targets:      []string{"x86_64-unknown-linux-gnu"},
			ManifestHash: "sha256-qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqo=",
		},
		Packages: []string{"zlib", "openssl", "pkg-config", "openssl"},
	}
}

func TestGenerateNixExpr_Golden(t *testing.T) {
	expr, err := nix.GenerateNixExprForTest("x86_64-linux", testSpec())
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "env_stable", []byte(expr))
}

func TestGenerateNixExpr_NightlyGolden(t *testing.T) {
	spec := testSpec()
	spec.Toolchain.Channel = "nightly"
	spec.Toolchain.Version = "2023-11-16"
	spec.Toolchain.Targets = []string{"wasm32-unknown-unknown", "x86_64-unknown-linux-gnu"}
	spec.Packages = []string{"gdb", "rust-analyzer"}

	expr, err := nix.GenerateNixExprForTest("aarch64-darwin", spec)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "env_nightly", []byte(expr))
}

func TestGenerateNixExpr_Deterministic(t *testing.T) {
	first, err := nix.GenerateNixExprForTest("x86_64-linux", testSpec())
	require.NoError(t, err)

	spec := testSpec()
	spec.Packages = []string{"pkg-config", "openssl", "zlib"}
	for range 10 {
		again, err := nix.GenerateNixExprForTest("x86_64-linux", spec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerateNixExpr_Errors(t *testing.T) {
	t.Run("missing nixpkgs pin", func(t *testing.T) {
		spec := testSpec()
		spec.Nixpkgs = "nixpkgs-unstable"
		_, err := nix.GenerateNixExprForTest("x86_64-linux", spec)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnknownSource.Error())
		assert.ErrorContains(t, err, "nixpkgs-unstable")
	})

	t.Run("missing overlay pin", func(t *testing.T) {
		spec := testSpec()
		delete(spec.Pins, "nixpkgs-mozilla")
		_, err := nix.GenerateNixExprForTest("x86_64-linux", spec)
		require.Error(t, err)
		assert.ErrorContains(t, err, "nixpkgs-mozilla")
	})

	t.Run("injection attempt", func(t *testing.T) {
		spec := testSpec()
		spec.Packages = []string{"openssl; builtins.exec"}
		_, err := nix.GenerateNixExprForTest("x86_64-linux", spec)
		require.Error(t, err)
		assert.ErrorContains(t, err, "invalid package attribute")
	})
}

func TestEnvFactory_GetEnvironment(t *testing.T) {
	cacheDir := t.TempDir()

	var calls atomic.Int32
	var seenExpr string
	factory := nix.NewEnvFactoryForTest(cacheDir, "x86_64-linux", func(_ context.Context, exprPath string) ([]byte, error) {
		calls.Add(1)
		data, err := os.ReadFile(exprPath)
		if err != nil {
			return nil, err
		}
		seenExpr = string(data)
		return []byte(devEnvJSON), nil
	})

	env, err := factory.GetEnvironment(context.Background(), testSpec())
	require.NoError(t, err)
	assert.Contains(t, seenExpr, "rustChannelOf")

	assert.Equal(t, []string{
		"NIX_CFLAGS_COMPILE=-isystem:/nix/store/ccc-openssl-dev/include",
		"PATH=/nix/store/aaa-rust-1.74.0/bin:/nix/store/bbb-pkg-config/bin",
		"PKG_CONFIG_PATH=/nix/store/ccc-openssl-dev/lib/pkgconfig",
		"TEMP=/tmp",
		"TMP=/tmp",
		"TMPDIR=/tmp",
	}, env)

	t.Run("cache hit", func(t *testing.T) {
		cached := nix.NewEnvFactoryForTest(cacheDir, "x86_64-linux", func(context.Context, string) ([]byte, error) {
			return nil, errors.New("nix must not run on a cache hit")
		})
		again, err := cached.GetEnvironment(context.Background(), testSpec())
		require.NoError(t, err)
		assert.Equal(t, env, again)
	})

	t.Run("pin change misses the cache", func(t *testing.T) {
		spec := testSpec()
		p := spec.Pins["nixpkgs"]
		p.Hash = "sha256-CAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
		spec.Pins["nixpkgs"] = p

		before := calls.Load()
		_, err := factory.GetEnvironment(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, before+1, calls.Load())
	})
}

func TestEnvFactory_GetEnvironment_Singleflight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	factory := nix.NewEnvFactoryForTest(t.TempDir(), "x86_64-linux", func(context.Context, string) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(devEnvJSON), nil
	})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := factory.GetEnvironment(context.Background(), testSpec())
			assert.NoError(t, err)
		}()
	}

	// Give the goroutines a chance to join the in-flight evaluation.
	for calls.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestEnvFactory_GetEnvironment_EvalFailure(t *testing.T) {
	factory := nix.NewEnvFactoryForTest(t.TempDir(), "x86_64-linux", func(context.Context, string) ([]byte, error) {
		return nil, errors.New("error: hash mismatch in fixed-output derivation")
	})

	_, err := factory.GetEnvironment(context.Background(), testSpec())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrNixEvalFailed.Error())
	assert.ErrorContains(t, err, "hash mismatch")
}

func TestEnvFactory_GetEnvironment_UnsupportedHost(t *testing.T) {
	var calls atomic.Int32
	evaluate := func(context.Context, string) ([]byte, error) {
		calls.Add(1)
		return []byte(devEnvJSON), nil
	}

	t.Run("supported", func(t *testing.T) {
		factory := nix.NewEnvFactoryForHost(t.TempDir(), "darwin", "arm64", evaluate)
		_, err := factory.GetEnvironment(context.Background(), testSpec())
		require.NoError(t, err)
	})

	t.Run("windows", func(t *testing.T) {
		calls.Store(0)
		factory := nix.NewEnvFactoryForHost(t.TempDir(), "windows", "amd64", evaluate)
		_, err := factory.GetEnvironment(context.Background(), testSpec())
		require.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
		assert.ErrorContains(t, err, "windows/amd64")
		assert.Zero(t, calls.Load())
	})
}

func TestParseNixDevEnv(t *testing.T) {
	env, err := nix.ParseNixDevEnv([]byte(devEnvJSON))
	require.NoError(t, err)
	for _, kv := range env {
		assert.NotContains(t, kv, "HOME=")
		assert.NotContains(t, kv, "buildInputs=")
		assert.NotContains(t, kv, "FUNCS=")
	}

	_, err = nix.ParseNixDevEnv([]byte("{"))
	require.Error(t, err)
}
