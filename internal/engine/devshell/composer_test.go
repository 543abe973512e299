package devshell_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports/mocks"
	"go.trai.ch/pinbuild/internal/engine/devshell"
	"go.uber.org/mock/gomock"
)

func shellRequest() devshell.ShellRequest {
	return devshell.ShellRequest{
		Pins: domain.PinSet{
			"nixpkgs":         {Name: "nixpkgs", Rev: "abc", Hash: "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="},
			"nixpkgs-mozilla": {Name: "nixpkgs-mozilla", Rev: "def", Hash: "sha256-BAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		},
		Nixpkgs:     "nixpkgs",
		RustOverlay: "nixpkgs-mozilla",
		Toolchain:   domain.Toolchain{Channel: "stable", Version: "1.74.0", Targets: []string{"x86_64-unknown-linux-gnu"}},
		NativeDeps:  domain.NewNativeDeps("openssl", "pkg-config", "zlib"),
		ExtraTools:  []string{"gdb", "zlib"},
	}
}

func TestCompose(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	factory := mocks.NewMockEnvironmentFactory(ctrl)
	composer := devshell.NewComposer(factory, nil)

	req := shellRequest()
	factory.EXPECT().GetEnvironment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, spec domain.EnvSpec) ([]string, error) {
			assert.Equal(t, []string{"gdb", "openssl", "pkg-config", "zlib"}, spec.Packages)
			assert.Equal(t, "nixpkgs", spec.Nixpkgs)
			assert.Equal(t, req.Pins, spec.Pins)
			return []string{
				"PATH=/nix/store/a-rust/bin:/nix/store/b-gdb/bin",
				"PKG_CONFIG_PATH=/nix/store/c-openssl/lib/pkgconfig",
				"CC=gcc",
			}, nil
		})

	env, err := composer.Compose(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.EnvSpec{
		Pins:        req.Pins,
		Nixpkgs:     req.Nixpkgs,
		RustOverlay: req.RustOverlay,
		Toolchain:   req.Toolchain,
		Packages:    []string{"gdb", "openssl", "pkg-config", "zlib"},
	}.ID(), env.ID)
	assert.Equal(t, []string{"/nix/store/a-rust/bin", "/nix/store/b-gdb/bin"}, env.Path)
	assert.Equal(t, []string{"CC=gcc", "PKG_CONFIG_PATH=/nix/store/c-openssl/lib/pkgconfig"}, env.Vars)
}

func TestCompose_EvaluationError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	factory := mocks.NewMockEnvironmentFactory(ctrl)
	factory.EXPECT().GetEnvironment(gomock.Any(), gomock.Any()).Return(nil, domain.ErrNixEvalFailed)

	_, err := devshell.NewComposer(factory, nil).Compose(context.Background(), shellRequest())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrNixEvalFailed.Error())
}

func TestEnter_RestoresEnvironment(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("CC", "clang")
	t.Setenv("PKG_CONFIG_PATH", "")
	require.NoError(t, os.Unsetenv("PKG_CONFIG_PATH"))

	env := domain.ShellEnvironment{
		ID:   "env",
		Vars: []string{"CC=gcc", "PKG_CONFIG_PATH=/nix/store/c-openssl/lib/pkgconfig"},
		Path: []string{"/nix/store/a-rust/bin"},
	}

	restore, err := devshell.Enter(env)
	require.NoError(t, err)

	assert.Equal(t, "/nix/store/a-rust/bin:/usr/bin:/bin", os.Getenv("PATH"))
	assert.Equal(t, "gcc", os.Getenv("CC"))
	assert.Equal(t, "/nix/store/c-openssl/lib/pkgconfig", os.Getenv("PKG_CONFIG_PATH"))

	restore()

	assert.Equal(t, "/usr/bin:/bin", os.Getenv("PATH"))
	assert.Equal(t, "clang", os.Getenv("CC"))
	_, present := os.LookupEnv("PKG_CONFIG_PATH")
	assert.False(t, present, "variables absent before entering must be unset")
}

func TestEnviron(t *testing.T) {
	t.Parallel()

	env := domain.ShellEnvironment{
		Vars: []string{"CC=gcc"},
		Path: []string{"/nix/store/a-rust/bin"},
	}

	got := devshell.Environ([]string{"HOME=/home/dev", "PATH=/usr/bin", "CC=clang"}, env)
	assert.Equal(t, []string{"HOME=/home/dev", "PATH=/nix/store/a-rust/bin:/usr/bin", "CC=gcc"}, got)
}

func TestRun(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	t.Setenv("PATH", "/usr/bin")

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	composer := devshell.NewComposer(nil, executor)
	env := domain.ShellEnvironment{ID: "env-id", Path: []string{"/nix/store/a-rust/bin"}}

	t.Run("interactive shell", func(t *testing.T) {
		executor.EXPECT().Attach(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *domain.Command, vars []string, _ domain.Stdio) error {
				assert.Equal(t, []string{"/bin/zsh"}, cmd.Args)
				assert.Equal(t, "env-id", cmd.Env[devshell.ShellMarkerVar])
				assert.Contains(t, vars, "PATH=/nix/store/a-rust/bin:/usr/bin")
				return nil
			})
		require.NoError(t, composer.Run(context.Background(), env, nil, domain.Stdio{}))
	})

	t.Run("one-off command", func(t *testing.T) {
		failure := errors.New("exit status 3")
		executor.EXPECT().Attach(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cmd *domain.Command, _ []string, _ domain.Stdio) error {
				assert.Equal(t, []string{"cargo", "test"}, cmd.Args)
				return failure
			})
		require.ErrorIs(t, composer.Run(context.Background(), env, []string{"cargo", "test"}, domain.Stdio{}), failure)
	})

	assert.Equal(t, "/usr/bin", os.Getenv("PATH"), "the host environment must not change")
}
