// Package devshell composes development environments from the pinned
// toolchain, the native dependencies and extra tools, and runs shells inside
// them.
package devshell

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// ShellMarkerVar is set inside every shell spawned by Run to the environment ID.
const ShellMarkerVar = "PINBUILD_SHELL"

// DefaultShell is used when $SHELL is unset.
const DefaultShell = "bash"

// ShellRequest is everything a development environment is composed from.
type ShellRequest struct {
	Pins        domain.PinSet
	Nixpkgs     string
	RustOverlay string
	Toolchain   domain.Toolchain
	NativeDeps  domain.NativeDeps
	ExtraTools  []string
}

// Composer builds shell environments.
type Composer struct {
	envFactory ports.EnvironmentFactory
	executor   ports.Executor
}

// NewComposer creates a new Composer.
func NewComposer(envFactory ports.EnvironmentFactory, executor ports.Executor) *Composer {
	return &Composer{envFactory: envFactory, executor: executor}
}

// Compose materialises the flat union of the toolchain, the native
// dependencies and the extra tools. Tools listed in both sets appear once.
func (c *Composer) Compose(ctx context.Context, req ShellRequest) (domain.ShellEnvironment, error) {
	spec := domain.EnvSpec{
		Pins:        req.Pins,
		Nixpkgs:     req.Nixpkgs,
		RustOverlay: req.RustOverlay,
		Toolchain:   req.Toolchain,
		Packages:    req.NativeDeps.Union(req.ExtraTools...).Names(),
	}

	vars, err := c.envFactory.GetEnvironment(ctx, spec)
	if err != nil {
		return domain.ShellEnvironment{}, err
	}

	env := domain.ShellEnvironment{ID: spec.ID()}
	for _, kv := range vars {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			env.Path = splitPath(v)
			continue
		}
		env.Vars = append(env.Vars, kv)
	}
	slices.Sort(env.Vars)
	return env, nil
}

func splitPath(v string) []string {
	return slices.DeleteFunc(filepath.SplitList(v), func(s string) bool { return s == "" })
}

// Enter applies env to the current process. PATH is prefixed with the
// environment's search path. The returned restore function puts back the exact
// previous values and unsets variables that were absent before.
func Enter(env domain.ShellEnvironment) (func(), error) {
	type saved struct {
		value   string
		present bool
	}
	prior := make(map[string]saved)
	remember := func(key string) {
		if _, ok := prior[key]; ok {
			return
		}
		v, present := os.LookupEnv(key)
		prior[key] = saved{value: v, present: present}
	}

	restore := func() {
		for key, s := range prior {
			if s.present {
				_ = os.Setenv(key, s.value)
			} else {
				_ = os.Unsetenv(key)
			}
		}
	}

	for _, kv := range env.Vars {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		remember(k)
		if err := os.Setenv(k, v); err != nil {
			restore()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrShellEnterFailed.Error()), "variable", k)
		}
	}

	if len(env.Path) > 0 {
		remember("PATH")
		path := strings.Join(env.Path, string(os.PathListSeparator))
		if current := os.Getenv("PATH"); current != "" {
			path += string(os.PathListSeparator) + current
		}
		if err := os.Setenv("PATH", path); err != nil {
			restore()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrShellEnterFailed.Error()), "variable", "PATH")
		}
	}

	return restore, nil
}

// Environ returns base with env applied, in the same form Enter would leave
// the process environment.
func Environ(base []string, env domain.ShellEnvironment) []string {
	merged := make(map[string]string, len(base)+len(env.Vars))
	var order []string
	set := func(k, v string) {
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] = v
	}

	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			set(k, v)
		}
	}
	for _, kv := range env.Vars {
		if k, v, ok := strings.Cut(kv, "="); ok {
			set(k, v)
		}
	}
	if len(env.Path) > 0 {
		path := strings.Join(env.Path, string(os.PathListSeparator))
		if current := merged["PATH"]; current != "" {
			path += string(os.PathListSeparator) + current
		}
		set("PATH", path)
	}

	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+merged[k])
	}
	return out
}

// Run starts command inside env, or an interactive shell when command is
// empty. The current process environment is left untouched.
func (c *Composer) Run(ctx context.Context, env domain.ShellEnvironment, command []string, stdio domain.Stdio) error {
	args := command
	if len(args) == 0 {
		sh := os.Getenv("SHELL")
		if sh == "" {
			sh = DefaultShell
		}
		args = []string{sh}
	}

	return c.executor.Attach(ctx, &domain.Command{
		Name: filepath.Base(args[0]),
		Args: args,
		Env:  map[string]string{ShellMarkerVar: env.ID},
	}, Environ(os.Environ(), env), stdio)
}
