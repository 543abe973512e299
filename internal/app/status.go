package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"go4.org/xdgdir"
)

// ToolchainResolve resolves the project's toolchain and prints its descriptor.
func (a *App) ToolchainResolve(ctx context.Context) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}
	tc, err := a.resolveToolchain(ctx, project)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(a.out(), "channel:  %s\nversion:  %s\ntargets:  %s\nmanifest: %s\n",
		tc.Channel, tc.Version, strings.Join(tc.Targets, ", "), tc.ManifestHash)
	return err
}

// GraphGenerate regenerates the project's package graph file from the lockfile.
func (a *App) GraphGenerate(ctx context.Context) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}
	if err := a.GraphGenerator.Generate(ctx, project.Root, project.NativeOverrides, project.GraphPath); err != nil {
		return err
	}

	rel, err := filepath.Rel(project.Root, project.GraphPath)
	if err != nil {
		rel = project.GraphPath
	}
	a.Logger.Info("wrote " + rel)
	return nil
}

// Status prints the cache state of every unit with its own artifact, with the
// time it was built and the size of its binaries.
func (a *App) Status(ctx context.Context) error {
	_, req, err := a.buildRequest(ctx, false)
	if err != nil {
		return err
	}
	planned, err := a.Builder.Plan(ctx, req)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, p := range planned {
		if !p.Local {
			continue
		}

		state, built, size := "stale", "never", "-"
		info, err := a.BuildInfos.Get(req.Root, p.Name)
		if err != nil {
			return err
		}
		if info != nil {
			built = humanize.Time(info.BuiltAt)
			if info.Key == p.Key {
				size = humanize.Bytes(binarySize(info))
			}
		}
		if p.Cached {
			state = "cached"
		}
		rows = append(rows, []string{p.Name, p.Version, p.Key, state, built, size})
	}

	_, err = fmt.Fprintln(a.out(), newTable([]string{"UNIT", "VERSION", "KEY", "STATE", "BUILT", "SIZE"}, rows))
	return err
}

func binarySize(info *domain.BuildInfo) uint64 {
	var total uint64
	for _, bin := range info.Binaries {
		if fi, err := os.Stat(filepath.Join(info.StorePath, "bin", bin)); err == nil {
			total += uint64(fi.Size()) //nolint:gosec // file sizes are never negative
		}
	}
	return total
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Cache removes the toolchain and environment caches.
	Cache bool
	// All removes the whole .pinbuild directory.
	All bool
}

// Clean removes build outputs and caches of the project. Without options the
// artifact store is removed. Cache and All also clear the user-level caches
// shared between projects.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	root, err := a.cleanRoot()
	if err != nil {
		return err
	}

	var errs error
	remove := func(path, name string) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		a.Logger.Info(fmt.Sprintf("removing %s...", name))
		start := time.Now()
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.Logger.Info(fmt.Sprintf("removed %s in %s", name, time.Since(start).Round(time.Millisecond)))
	}

	switch {
	case options.All:
		remove(domain.DefaultPinbuildPath(), "all pinbuild data")
	case options.Cache:
		remove(domain.DefaultCachePath(), "toolchain and environment caches")
	default:
		remove(domain.DefaultStorePath(), "artifact store")
	}
	if options.All || options.Cache {
		if dir := xdgdir.Cache.Path(); dir != "" {
			remove(filepath.Join(dir, "pinbuild"), "user caches")
		}
	}

	return errs
}

// cleanRoot is the project root, or the working directory when there is no
// project descriptor.
func (a *App) cleanRoot() (string, error) {
	project, err := a.loadProject()
	if err == nil {
		return project.Root, nil
	}
	if !strings.Contains(err.Error(), domain.ErrConfigNotFound.Error()) {
		return "", err
	}
	return a.getwd()
}
