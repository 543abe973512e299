package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.trai.ch/pinbuild/internal/adapters/linear"
	"go.trai.ch/pinbuild/internal/adapters/telemetry"
	"go.trai.ch/pinbuild/internal/adapters/watcher"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/ui/style"
	"go.trai.ch/zerr"
)

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	NoCache bool
	DryRun  bool
	Watch   bool
}

// Build builds the package set of the project.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	project, req, err := a.buildRequest(ctx, opts.NoCache)
	if err != nil {
		return err
	}

	if opts.DryRun {
		return a.printPlan(ctx, req)
	}

	set, err := a.build(ctx, req)
	if err != nil {
		return err
	}
	a.reportApp(set, project)

	if opts.Watch {
		return a.watch(ctx, project, opts.NoCache)
	}
	return nil
}

// build runs the builder with the linear renderer attached to its spans.
func (a *App) build(ctx context.Context, req domain.BuildRequest) (*domain.PackageSet, error) {
	renderer := linear.NewRendererWithProfile(a.stdio.Out, a.stdio.Err, a.detect().ColorProfile())
	provider := telemetry.NewProvider(renderer)
	a.Tracer.WithProvider(provider, "pinbuild").WithRenderer(renderer)
	defer func() {
		_ = provider.Shutdown(context.WithoutCancel(ctx))
		_ = renderer.Stop()
	}()

	if err := renderer.Start(ctx); err != nil {
		return nil, err
	}

	return a.Builder.Build(ctx, req)
}

func (a *App) reportApp(set *domain.PackageSet, project *domain.Project) {
	out, err := a.Selector.Select(set, project.AppUnit.String())
	if err != nil {
		return
	}
	a.Logger.Info(fmt.Sprintf("%s %s %s %s", out.Unit, out.Version, style.Arrow, out.BinaryPath))
}

func (a *App) printPlan(ctx context.Context, req domain.BuildRequest) error {
	planned, err := a.Builder.Plan(ctx, req)
	if err != nil {
		return err
	}

	for _, p := range planned {
		state := "registry"
		switch {
		case p.Local && p.Cached:
			state = "cached"
		case p.Local:
			state = "compile"
		}
		_, _ = fmt.Fprintf(a.out(), "%-8s %s %s %s\n", state, p.Key, p.Name, p.Version)
	}
	return nil
}

// watch rebuilds whenever a local source or one of the project's input files
// changes, until ctx is canceled. Each rebuild reloads the project, pins,
// toolchain and graph. Failures are reported and watching continues.
func (a *App) watch(ctx context.Context, project *domain.Project, noCache bool) error {
	if err := a.Watcher.Start(ctx, project.Root); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() { _ = a.Watcher.Stop() }()

	trigger := watcher.NewTrigger(watcher.DefaultQuietPeriod)
	defer trigger.Stop()

	inputs := project.InputFiles()
	go func() {
		for event := range a.Watcher.Events() {
			if slices.Contains(inputs, event.Path) || watcher.Relevant(project.Root, project.LocalPatterns, event.Path) {
				trigger.Add(event.Path)
			}
		}
	}()

	a.Logger.Info("watching for changes, press Ctrl+C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger.Ready():
			paths := trigger.Take()
			if len(paths) == 0 {
				continue
			}
			a.Logger.Info(fmt.Sprintf("%d file(s) changed, rebuilding", len(paths)))
			if err := a.rebuild(ctx, noCache); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.Logger.Error(err)
			}
		}
	}
}

// rebuild reads the build request from disk again and builds it.
func (a *App) rebuild(ctx context.Context, noCache bool) error {
	project, req, err := a.buildRequest(ctx, noCache)
	if err != nil {
		return err
	}
	set, err := a.build(ctx, req)
	if err != nil {
		return err
	}
	a.reportApp(set, project)
	return nil
}

// buildAndSelect builds the project and selects unit, or the project's app
// unit when unit is empty.
func (a *App) buildAndSelect(ctx context.Context, unit string) (domain.BuildOutput, error) {
	project, req, err := a.buildRequest(ctx, false)
	if err != nil {
		return domain.BuildOutput{}, err
	}
	if unit == "" {
		unit = project.AppUnit.String()
	}

	set, err := a.build(ctx, req)
	if err != nil {
		return domain.BuildOutput{}, err
	}
	return a.Selector.Select(set, unit)
}

// Select builds the project and prints the build output of unit as JSON.
func (a *App) Select(ctx context.Context, unit string) error {
	out, err := a.buildAndSelect(ctx, unit)
	if err != nil {
		return err
	}

	data, err := json.Marshal(out, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return zerr.Wrap(err, "failed to encode build output")
	}
	_, err = a.out().Write(append(data, '\n'))
	return err
}

// Run builds the project and launches unit, or the project's app unit when
// unit is empty. The program's exit status is returned as an ExitError.
func (a *App) Run(ctx context.Context, unit string) error {
	out, err := a.buildAndSelect(ctx, unit)
	if err != nil {
		return err
	}
	return exitStatus(a.Selector.Launch(ctx, out, a.stdio))
}

// Units returns the names of every unit with a binary target, for shell
// completion.
func (a *App) Units() []string {
	project, err := a.loadProject()
	if err != nil {
		return nil
	}
	graph, err := a.GraphLoader.Load(project.GraphPath)
	if err != nil {
		return nil
	}
	var names []string
	for u := range graph.Units() {
		if u.IsLocal() && len(u.Binaries) > 0 {
			names = append(names, u.Name.String())
		}
	}
	slices.Sort(names)
	return names
}
