package builder_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinbuild/internal/adapters/cas"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/pinbuild/internal/core/ports/mocks"
	"go.trai.ch/pinbuild/internal/engine/builder"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	compiler   *mocks.MockCompiler
	hasher     *mocks.MockSourceHasher
	envFactory *mocks.MockEnvironmentFactory
	logger     *mocks.MockLogger
	infos      *cas.Store
	builder    *builder.Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		compiler:   mocks.NewMockCompiler(ctrl),
		hasher:     mocks.NewMockSourceHasher(ctrl),
		envFactory: mocks.NewMockEnvironmentFactory(ctrl),
		logger:     mocks.NewMockLogger(ctrl),
		infos:      cas.NewStore(),
	}

	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()
	span.EXPECT().End().AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()

	f.hasher.EXPECT().HashLocalSources(gomock.Any(), gomock.Any()).Return("cafebabe", nil).AnyTimes()
	f.envFactory.EXPECT().GetEnvironment(gomock.Any(), gomock.Any()).Return([]string{"PATH=/nix/store/x/bin"}, nil).AnyTimes()

	f.builder = builder.NewBuilder(f.compiler, cas.NewArtifacts(), f.infos, f.hasher, f.envFactory, tracer, f.logger)
	f.builder.SetClock(func() time.Time { return time.Date(2023, 11, 16, 0, 0, 0, 0, time.UTC) })
	return f
}

// writeBinaries returns a compile function that writes one file per binary of
// the unit into the output directory.
func writeBinaries(content string) func(context.Context, domain.CompileRequest, io.Writer) error {
	return func(_ context.Context, req domain.CompileRequest, out io.Writer) error {
		_, _ = io.WriteString(out, "Compiling "+req.Unit.Name.String()+"\n")
		binDir := filepath.Join(req.OutDir, "bin")
		if err := os.MkdirAll(binDir, 0o750); err != nil {
			return err
		}
		for _, bin := range req.Unit.Binaries {
			//nolint:gosec // test binary must be executable
			if err := os.WriteFile(filepath.Join(binDir, bin), []byte(content), 0o755); err != nil {
				return err
			}
		}
		return nil
	}
}

func newUnit(name, version, source string, bins []string, deps ...string) *domain.Unit {
	return &domain.Unit{
		ID:           domain.NewInternedString(domain.UnitID(name, version)),
		Name:         domain.NewInternedString(name),
		Version:      version,
		Source:       source,
		Dependencies: domain.NewInternedStrings(deps),
		Binaries:     bins,
	}
}

const registry = "registry+https://github.com/rust-lang/crates.io-index"

func cignRequest(t *testing.T, root string) domain.BuildRequest {
	t.Helper()
	g := domain.NewPackageGraph()
	sys := newUnit("libgit2-sys", "0.16.1+1.7.1", registry, nil)
	sys.NativeOverrides = domain.NewInternedStrings([]string{"pkg-config", "zlib"})
	require.NoError(t, g.AddUnit(newUnit("cign", "0.3.1", domain.SourceLocal, []string{"cign"}, "git2 0.18.1")))
	require.NoError(t, g.AddUnit(newUnit("git2", "0.18.1", registry, nil, "libgit2-sys 0.16.1+1.7.1")))
	require.NoError(t, g.AddUnit(sys))

	return domain.BuildRequest{
		Root:  root,
		Graph: g,
		Toolchain: domain.Toolchain{
			Channel: "stable", Version: "1.74.0", Targets: []string{"x86_64-unknown-linux-gnu"},
			ManifestHash: "sha256-qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqo=",
		},
		NativeDeps:    domain.NewNativeDeps("pkg-config", "zlib"),
		LocalPatterns: []string{"Cargo.toml", "Cargo.lock", "src/**"},
		Pins: domain.PinSet{
			"nixpkgs": {Name: "nixpkgs", Rev: "abc", Hash: "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="},
		},
		Nixpkgs:     "nixpkgs",
		RustOverlay: "nixpkgs-mozilla",
	}
}

func TestBuild_SecondRunIsCacheHit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()
	req := cignRequest(t, root)

	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(writeBinaries("v1")).Times(1)

	set, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"cign 0.3.1", "git2 0.18.1", "libgit2-sys 0.16.1+1.7.1"}, set.IDs())

	cign := set.Units["cign 0.3.1"]
	assert.False(t, cign.Cached)
	assert.Len(t, cign.Key, 32)
	assert.Equal(t, filepath.Join(root, domain.DefaultStorePath(), cign.Key+"-cign-0.3.1"), cign.StorePath)
	data, err := os.ReadFile(filepath.Join(cign.StorePath, "bin", "cign"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	assert.True(t, set.Units["git2 0.18.1"].Cached)
	assert.Empty(t, set.Units["git2 0.18.1"].StorePath)

	info, err := f.infos.Get(root, "cign")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, cign.Key, info.Key)
	assert.Equal(t, cign.StorePath, info.StorePath)
	assert.Equal(t, req.Toolchain.Identity(), info.Toolchain)
	assert.Equal(t, map[string]string{"nixpkgs": "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="}, info.Pins)

	again, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, again.Units["cign 0.3.1"].Cached)
	assert.Equal(t, cign.StorePath, again.Units["cign 0.3.1"].StorePath)
	assert.Equal(t, cign.Key, again.Units["cign 0.3.1"].Key)
}

func TestBuild_PinChangeRebuilds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()
	req := cignRequest(t, root)

	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(writeBinaries("v1")).Times(2)

	first, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)

	pins := req.Pins.Clone()
	p := pins["nixpkgs"]
	p.Hash = "sha256-BAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
	pins["nixpkgs"] = p
	req.Pins = pins

	second, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Units["cign 0.3.1"].StorePath, second.Units["cign 0.3.1"].StorePath)
	assert.NotEqual(t, first.Units["git2 0.18.1"].Key, second.Units["git2 0.18.1"].Key)
	assert.DirExists(t, first.Units["cign 0.3.1"].StorePath)
}

func TestBuild_InvalidGraphCompilesNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(t *testing.T, req *domain.BuildRequest)
		errPart string
	}{
		{
			name: "dangling dependency",
			mutate: func(t *testing.T, req *domain.BuildRequest) {
				t.Helper()
				require.NoError(t, req.Graph.AddUnit(newUnit("tool", "1.0.0", domain.SourceLocal, []string{"tool"}, "serde 1.0.190")))
			},
			errPart: "serde 1.0.190",
		},
		{
			name: "unbound native dependency",
			mutate: func(_ *testing.T, req *domain.BuildRequest) {
				req.NativeDeps = domain.NewNativeDeps("zlib")
			},
			errPart: "pkg-config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			root := t.TempDir()
			req := cignRequest(t, root)
			tt.mutate(t, &req)

			_, err := f.builder.Build(context.Background(), req)
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrGraphResolution.Error())
			assert.ErrorContains(t, err, tt.errPart)
			assert.NoDirExists(t, filepath.Join(root, domain.DefaultStorePath()))
		})
	}
}

func TestBuild_CompileFailureLeavesNoStorePath(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()
	req := cignRequest(t, root)

	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ErrExternalCompilation)

	_, err := f.builder.Build(context.Background(), req)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrExternalCompilation.Error())

	entries, err := os.ReadDir(filepath.Join(root, domain.DefaultStorePath()))
	require.NoError(t, err)
	assert.Empty(t, entries)

	info, err := f.infos.Get(root, "cign")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestBuild_NoCacheNeverOverwrites(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()
	req := cignRequest(t, root)

	gomock.InOrder(
		f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeBinaries("v1")),
		f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeBinaries("v2")),
	)
	f.logger.EXPECT().Warn(gomock.Any()).Times(1)

	first, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)

	req.NoCache = true
	second, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Units["cign 0.3.1"].StorePath, second.Units["cign 0.3.1"].StorePath)

	data, err := os.ReadFile(filepath.Join(second.Units["cign 0.3.1"].StorePath, "bin", "cign"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	staging, err := filepath.Glob(filepath.Join(root, domain.DefaultStorePath(), ".staging-*"))
	require.NoError(t, err)
	assert.Empty(t, staging)
}

func TestBuild_LocalDependenciesCompileFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.builder.SetParallelism(4)
	root := t.TempDir()

	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(newUnit("app", "0.1.0", domain.SourceLocal, []string{"app"}, "codegen 0.1.0", "helper 0.1.0")))
	require.NoError(t, g.AddUnit(newUnit("codegen", "0.1.0", domain.SourceLocal, []string{"codegen"})))
	require.NoError(t, g.AddUnit(newUnit("helper", "0.1.0", domain.SourceLocal, []string{"helper"})))
	req := domain.BuildRequest{Root: root, Graph: g, Toolchain: domain.Toolchain{Channel: "stable", Version: "1.74.0"}}

	var (
		mu    sync.Mutex
		order []string
	)
	compile := writeBinaries("bin")
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.CompileRequest, out io.Writer) error {
			mu.Lock()
			order = append(order, req.Unit.Name.String())
			mu.Unlock()
			return compile(ctx, req, out)
		}).Times(3)

	set, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, "app", order[2])
	for _, name := range []string{"app", "codegen", "helper"} {
		assert.DirExists(t, set.Units[domain.UnitID(name, "0.1.0")].StorePath)
	}
}

func TestBuild_CrateAtTwoVersions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()

	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(newUnit("cign", "0.3.1", domain.SourceLocal, []string{"cign"}, "syn 1.0.109", "thiserror-impl 1.0.50")))
	require.NoError(t, g.AddUnit(newUnit("thiserror-impl", "1.0.50", registry, nil, "syn 2.0.39")))
	require.NoError(t, g.AddUnit(newUnit("syn", "1.0.109", registry, nil)))
	require.NoError(t, g.AddUnit(newUnit("syn", "2.0.39", registry, nil)))
	req := domain.BuildRequest{Root: root, Graph: g, Toolchain: domain.Toolchain{Channel: "stable", Version: "1.74.0"}}

	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(writeBinaries("v1")).Times(1)

	set, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"cign 0.3.1", "syn 1.0.109", "syn 2.0.39", "thiserror-impl 1.0.50"}, set.IDs())
	assert.NotEqual(t, set.Units["syn 1.0.109"].Key, set.Units["syn 2.0.39"].Key)

	cign, ok := set.Lookup("cign")
	require.True(t, ok)
	assert.DirExists(t, cign.StorePath)
}

func TestBuild_FailureStopsDependents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()

	g := domain.NewPackageGraph()
	require.NoError(t, g.AddUnit(newUnit("app", "0.1.0", domain.SourceLocal, []string{"app"}, "codegen 0.1.0")))
	require.NoError(t, g.AddUnit(newUnit("codegen", "0.1.0", domain.SourceLocal, []string{"codegen"})))
	req := domain.BuildRequest{Root: root, Graph: g, Toolchain: domain.Toolchain{Channel: "stable", Version: "1.74.0"}}

	boom := errors.New("boom")
	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.CompileRequest, _ io.Writer) error {
			assert.Equal(t, "codegen", req.Unit.Name.String())
			return boom
		}).Times(1)

	_, err := f.builder.Build(context.Background(), req)
	require.ErrorIs(t, err, boom)
}

func TestPlan(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	root := t.TempDir()
	req := cignRequest(t, root)

	planned, err := f.builder.Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, planned, 3)
	assert.Equal(t, "libgit2-sys", planned[0].Name)
	assert.Equal(t, "cign", planned[2].Name)
	assert.True(t, planned[2].Local)
	assert.False(t, planned[2].Cached)
	assert.True(t, planned[0].Cached)

	f.compiler.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeBinaries("v1"))
	set, err := f.builder.Build(context.Background(), req)
	require.NoError(t, err)

	planned, err = f.builder.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, planned[2].Cached)
	assert.Equal(t, set.Units["cign 0.3.1"].Key, planned[2].Key)
}
