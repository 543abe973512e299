// Package builder turns a package graph into a package set of committed,
// content-addressed unit outputs.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Builder compiles the local units of a package graph and commits their
// outputs to the artifact store.
type Builder struct {
	compiler   ports.Compiler
	artifacts  ports.ArtifactStore
	infos      ports.BuildInfoStore
	hasher     ports.SourceHasher
	envFactory ports.EnvironmentFactory
	tracer     ports.Tracer
	logger     ports.Logger

	parallelism int
	now         func() time.Time
}

// NewBuilder creates a new Builder with the given dependencies.
func NewBuilder(
	compiler ports.Compiler,
	artifacts ports.ArtifactStore,
	infos ports.BuildInfoStore,
	hasher ports.SourceHasher,
	envFactory ports.EnvironmentFactory,
	tracer ports.Tracer,
	logger ports.Logger,
) *Builder {
	return &Builder{
		compiler:    compiler,
		artifacts:   artifacts,
		infos:       infos,
		hasher:      hasher,
		envFactory:  envFactory,
		tracer:      tracer,
		logger:      logger,
		parallelism: runtime.NumCPU(),
		now:         time.Now,
	}
}

// plan is the keyed, validated form of a build request.
type plan struct {
	order []domain.Unit
	keys  map[domain.InternedString]string
}

// needsArtifact reports whether the unit produces an output of its own.
// Registry units and local libraries are compiled transitively by their
// dependents.
func needsArtifact(u domain.Unit) bool {
	return u.IsLocal() && len(u.Binaries) > 0
}

// prepare validates the graph and computes the cache key of every unit.
func (b *Builder) prepare(req domain.BuildRequest) (*plan, error) {
	if err := req.Graph.Validate(); err != nil {
		return nil, err
	}
	if err := req.Graph.CheckNativeBindings(req.NativeDeps); err != nil {
		return nil, err
	}

	var localHash string
	for u := range req.Graph.Units() {
		if u.IsLocal() {
			h, err := b.hasher.HashLocalSources(req.Root, req.LocalPatterns)
			if err != nil {
				return nil, zerr.Wrap(err, domain.ErrInputHashComputationFailed.Error())
			}
			localHash = h
			break
		}
	}

	p := &plan{keys: make(map[domain.InternedString]string, req.Graph.Len())}
	for u := range req.Graph.Walk() {
		depKeys := make([]string, len(u.Dependencies))
		for i, dep := range u.Dependencies {
			depKeys[i] = p.keys[dep]
		}
		p.keys[u.ID] = UnitKey(KeyInputs{
			Unit:       u,
			Toolchain:  req.Toolchain,
			NativeDeps: req.NativeDeps,
			Pins:       req.Pins,
			DepKeys:    depKeys,
			LocalHash:  localHash,
		})
		p.order = append(p.order, u)
	}
	return p, nil
}

// Plan computes the key and cache status of every unit without compiling.
// Units are returned in dependency order.
func (b *Builder) Plan(_ context.Context, req domain.BuildRequest) ([]domain.PlannedUnit, error) {
	p, err := b.prepare(req)
	if err != nil {
		return nil, err
	}

	planned := make([]domain.PlannedUnit, 0, len(p.order))
	for _, u := range p.order {
		key := p.keys[u.ID]
		cached := true
		if needsArtifact(u) {
			_, cached = b.artifacts.Lookup(req.Root, key, u.Name.String(), u.Version)
		}
		planned = append(planned, domain.PlannedUnit{
			Name:    u.Name.String(),
			Version: u.Version,
			Key:     key,
			Local:   u.IsLocal(),
			Cached:  cached,
		})
	}
	return planned, nil
}

// Build validates req, compiles every local unit whose output is not yet in
// the store and returns the resulting package set. Nothing is compiled when
// validation fails.
func (b *Builder) Build(ctx context.Context, req domain.BuildRequest) (*domain.PackageSet, error) {
	p, err := b.prepare(req)
	if err != nil {
		return nil, err
	}

	if err := b.artifacts.Prune(req.Root); err != nil {
		b.logger.Warn(fmt.Sprintf("failed to prune interrupted builds: %v", err))
	}

	set := domain.NewPackageSet(req.Toolchain)
	var pending []domain.Unit
	for _, u := range p.order {
		key := p.keys[u.ID]
		built := domain.BuiltUnit{Unit: u, Key: key, Binaries: slices.Clone(u.Binaries), Cached: true}
		if needsArtifact(u) {
			path, ok := b.artifacts.Lookup(req.Root, key, u.Name.String(), u.Version)
			built.StorePath = path
			built.Cached = ok
			if !ok || req.NoCache {
				pending = append(pending, u)
			}
		}
		set.Units[u.ID.String()] = built
	}

	names := make([]string, len(pending))
	for i, u := range pending {
		names[i] = u.Name.String()
	}
	b.tracer.EmitPlan(ctx, names)

	if len(pending) == 0 {
		return set, nil
	}

	env, err := b.envFactory.GetEnvironment(ctx, domain.EnvSpec{
		Pins:        req.Pins,
		Nixpkgs:     req.Nixpkgs,
		RustOverlay: req.RustOverlay,
		Toolchain:   req.Toolchain,
		Packages:    req.NativeDeps.Names(),
	})
	if err != nil {
		return nil, err
	}

	results, err := b.compileAll(ctx, req, p, pending, env)
	if err != nil {
		return nil, err
	}
	for id, path := range results {
		built := set.Units[id]
		built.StorePath = path
		set.Units[id] = built
	}

	return set, nil
}

// compileAll compiles pending units in dependency order. A unit starts once
// every pending unit it depends on has been committed.
func (b *Builder) compileAll(
	ctx context.Context,
	req domain.BuildRequest,
	p *plan,
	pending []domain.Unit,
	env []string,
) (map[string]string, error) {
	done := make(map[domain.InternedString]chan struct{}, len(pending))
	for _, u := range pending {
		done[u.ID] = make(chan struct{})
	}

	var (
		mu       sync.Mutex
		results  = make(map[string]string, len(pending))
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)

	// pending is in dependency order, so every unit a goroutine waits for was
	// started before it. A failed unit never closes its channel; its
	// dependents are released by the group's cancellation instead.
	for _, u := range pending {
		g.Go(func() error {
			for _, dep := range u.Dependencies {
				if ch, ok := done[dep]; ok {
					select {
					case <-ch:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			path, err := b.buildUnit(gctx, req, u, p.keys[u.ID], env)
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return err
			}

			mu.Lock()
			results[u.ID.String()] = path
			mu.Unlock()
			close(done[u.ID])
			return nil
		})
	}

	waitErr := g.Wait()
	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return results, nil
}

func (b *Builder) buildUnit(
	ctx context.Context,
	req domain.BuildRequest,
	u domain.Unit,
	key string,
	env []string,
) (string, error) {
	name := u.Name.String()
	ctx, span := b.tracer.Start(ctx, name)
	defer span.End()
	span.SetAttribute("pinbuild.key", key)
	span.SetAttribute("pinbuild.version", u.Version)

	compile := func(dir string) error {
		return b.compiler.Compile(ctx, domain.CompileRequest{
			Root:      req.Root,
			Unit:      u,
			Toolchain: req.Toolchain,
			Env:       env,
			OutDir:    dir,
		}, span)
	}

	if existing, ok := b.artifacts.Lookup(req.Root, key, name, u.Version); ok {
		// Forced rebuild of a committed output: the fresh output is only
		// compared, the store path stays as it is.
		if err := b.verify(req.Root, existing, compile); err != nil {
			span.RecordError(err)
			return "", err
		}
		return existing, nil
	}

	path, err := b.artifacts.Commit(ctx, req.Root, key, name, u.Version, compile)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	info := domain.BuildInfo{
		Unit:      name,
		Version:   u.Version,
		Key:       key,
		StorePath: path,
		Binaries:  slices.Clone(u.Binaries),
		Toolchain: req.Toolchain.Identity(),
		Pins:      pinHashes(req.Pins),
		BuiltAt:   b.now().UTC(),
	}
	if err := b.infos.Put(req.Root, info); err != nil {
		span.RecordError(err)
		return "", zerr.With(err, "unit", name)
	}

	return path, nil
}

// verify compiles into a scratch directory and warns when the result differs
// from the committed output.
func (b *Builder) verify(root, existing string, compile func(dir string) error) error {
	storeDir := filepath.Join(root, domain.DefaultStorePath())
	if err := os.MkdirAll(storeDir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}
	scratch, err := os.MkdirTemp(storeDir, ".staging-verify-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	if err := compile(scratch); err != nil {
		return err
	}

	same, err := sameTree(existing, scratch)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	if !same {
		b.logger.Warn(fmt.Sprintf("rebuild of %s differs from the committed output", filepath.Base(existing)))
	}
	return nil
}

// sameTree reports whether the regular files under bin/ of both trees are
// byte-identical.
func sameTree(a, b string) (bool, error) {
	read := func(root string) (map[string][]byte, error) {
		files := make(map[string][]byte)
		entries, err := os.ReadDir(filepath.Join(root, "bin"))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(root, "bin", e.Name())) //nolint:gosec // store paths
			if err != nil {
				return nil, err
			}
			files[e.Name()] = data
		}
		return files, nil
	}

	left, err := read(a)
	if err != nil {
		return false, err
	}
	right, err := read(b)
	if err != nil {
		return false, err
	}
	return maps.EqualFunc(left, right, bytes.Equal), nil
}

func pinHashes(pins domain.PinSet) map[string]string {
	hashes := make(map[string]string, len(pins))
	for name, pin := range pins {
		hashes[name] = pin.Hash
	}
	return hashes
}
