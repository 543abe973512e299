// Package app implements the application layer for pinbuild.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.trai.ch/pinbuild/internal/adapters/detector"
	"go.trai.ch/pinbuild/internal/adapters/shell"
	"go.trai.ch/pinbuild/internal/adapters/telemetry"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/pinbuild/internal/engine/builder"
	"go.trai.ch/pinbuild/internal/engine/devshell"
	"go.trai.ch/pinbuild/internal/engine/selector"
	"go.trai.ch/zerr"
)

// Deps are the components the application is assembled from.
type Deps struct {
	ConfigLoader   ports.ConfigLoader
	PinStore       ports.PinStore
	Toolchains     ports.ToolchainResolver
	GraphLoader    ports.GraphLoader
	GraphGenerator ports.GraphGenerator
	BuildInfos     ports.BuildInfoStore
	Builder        *builder.Builder
	Selector       *selector.Selector
	Composer       *devshell.Composer
	Tracer         *telemetry.OTelTracer
	Watcher        ports.Watcher
	Logger         ports.Logger
}

// App represents the main application logic.
type App struct {
	Deps

	pinsOverride string
	stdio        domain.Stdio
	detect       func() detector.Environment
	getwd        func() (string, error)
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{
		Deps: deps,
		stdio: domain.Stdio{
			In:  os.Stdin,
			Out: os.Stdout,
			Err: os.Stderr,
		},
		detect: detector.Detect,
		getwd:  os.Getwd,
	}
}

// WithStdio replaces the standard streams used for command output, the
// renderer and launched processes.
func (a *App) WithStdio(stdio domain.Stdio) *App {
	a.stdio = stdio
	return a
}

// WithWorkDir makes the project discovery start at dir instead of the
// process working directory.
func (a *App) WithWorkDir(dir string) *App {
	a.getwd = func() (string, error) { return dir, nil }
	return a
}

// WithDetector replaces terminal detection.
func (a *App) WithDetector(detect func() detector.Environment) *App {
	a.detect = detect
	return a
}

// SetPinsOverride sets the JSONC file whose pins replace the locked ones.
func (a *App) SetPinsOverride(path string) {
	a.pinsOverride = path
}

// SetJSONLogs switches the logger to JSON output when it supports it.
func (a *App) SetJSONLogs(enable bool) {
	if l, ok := a.Logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(enable)
	}
}

// ExitError carries the exit status of a launched program.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitStatus turns a failed attached process into an ExitError.
func exitStatus(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := shell.ExitCode(err); ok && code > 0 {
		return &ExitError{Code: code, Err: err}
	}
	return err
}

func (a *App) out() io.Writer {
	return a.stdio.Out
}

// loadProject discovers and loads the project descriptor.
func (a *App) loadProject() (*domain.Project, error) {
	cwd, err := a.getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get working directory")
	}
	project, err := a.ConfigLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

// loadPins reads the pin registry of project and checks that every pin the
// project names is present.
func (a *App) loadPins(project *domain.Project) (ports.PinRegistry, error) {
	registry, err := a.PinStore.Load(project.Pins.Lock, a.pinsOverride)
	if err != nil {
		return nil, err
	}
	for _, name := range project.RequiredPins() {
		if _, err := registry.Resolve(name); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (a *App) resolveToolchain(ctx context.Context, project *domain.Project) (domain.Toolchain, error) {
	tc := project.Toolchain
	return a.Toolchains.Resolve(ctx, tc.Channel, tc.Version, tc.Targets)
}

// buildRequest assembles every build input of the project.
func (a *App) buildRequest(ctx context.Context, noCache bool) (*domain.Project, domain.BuildRequest, error) {
	project, err := a.loadProject()
	if err != nil {
		return nil, domain.BuildRequest{}, err
	}

	registry, err := a.loadPins(project)
	if err != nil {
		return nil, domain.BuildRequest{}, err
	}

	toolchain, err := a.resolveToolchain(ctx, project)
	if err != nil {
		return nil, domain.BuildRequest{}, err
	}

	graph, err := a.GraphLoader.Load(project.GraphPath)
	if err != nil {
		return nil, domain.BuildRequest{}, err
	}

	return project, domain.BuildRequest{
		Root:          project.Root,
		Graph:         graph,
		Toolchain:     toolchain,
		NativeDeps:    project.NativeDeps,
		LocalPatterns: project.LocalPatterns,
		Pins:          registry.PinSet(),
		Nixpkgs:       project.Pins.Nixpkgs,
		RustOverlay:   project.Pins.RustOverlay,
		NoCache:       noCache,
	}, nil
}
