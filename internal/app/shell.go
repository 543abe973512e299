package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/engine/devshell"
	"go.trai.ch/zerr"
)

// ShellOptions configuration for the Shell method.
type ShellOptions struct {
	// Print writes the environment as shell exports instead of spawning a shell.
	Print bool
	// Command is run inside the environment instead of an interactive shell.
	Command []string
}

// Shell composes the development environment of the project and enters it.
func (a *App) Shell(ctx context.Context, opts ShellOptions) error {
	env, err := a.composeShell(ctx)
	if err != nil {
		return err
	}

	if opts.Print {
		_, err := fmt.Fprint(a.out(), exports(env))
		return err
	}

	if len(opts.Command) == 0 && !a.detect().Interactive() {
		return zerr.Wrap(domain.ErrShellEnterFailed, "no terminal attached, pass a command after --")
	}

	return exitStatus(a.Composer.Run(ctx, env, opts.Command, a.stdio))
}

func (a *App) composeShell(ctx context.Context) (domain.ShellEnvironment, error) {
	project, err := a.loadProject()
	if err != nil {
		return domain.ShellEnvironment{}, err
	}

	registry, err := a.loadPins(project)
	if err != nil {
		return domain.ShellEnvironment{}, err
	}

	toolchain, err := a.resolveToolchain(ctx, project)
	if err != nil {
		return domain.ShellEnvironment{}, err
	}

	return a.Composer.Compose(ctx, devshell.ShellRequest{
		Pins:        registry.PinSet(),
		Nixpkgs:     project.Pins.Nixpkgs,
		RustOverlay: project.Pins.RustOverlay,
		Toolchain:   toolchain,
		NativeDeps:  project.NativeDeps,
		ExtraTools:  project.ExtraTools,
	})
}

// exports renders env as POSIX shell export statements. PATH keeps the
// caller's entries after the environment's.
func exports(env domain.ShellEnvironment) string {
	var b strings.Builder
	for _, kv := range env.Vars {
		fmt.Fprintf(&b, "export %s\n", shellquote.Join(kv))
	}
	if len(env.Path) > 0 {
		path := strings.Join(env.Path, string(os.PathListSeparator))
		fmt.Fprintf(&b, "export %s%s\"$PATH\"\n", shellquote.Join("PATH="+path), string(os.PathListSeparator))
	}
	fmt.Fprintf(&b, "export %s\n", shellquote.Join(devshell.ShellMarkerVar+"="+env.ID))
	return b.String()
}
