package builder

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinbuild/internal/adapters/cargo"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/adapters/nix"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/core/ports"
)

// NodeID is the unique identifier for the builder Graft node.
const NodeID graft.ID = "engine.builder"

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cargo.CompilerNodeID,
			cas.ArtifactsNodeID,
			cas.NodeID,
			fs.HasherNodeID,
			nix.EnvFactoryNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Builder, error) {
			compiler, err := graft.Dep[ports.Compiler](ctx)
			if err != nil {
				return nil, err
			}

			artifacts, err := graft.Dep[ports.ArtifactStore](ctx)
			if err != nil {
				return nil, err
			}

			infos, err := graft.Dep[ports.BuildInfoStore](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.SourceHasher](ctx)
			if err != nil {
				return nil, err
			}

			envFactory, err := graft.Dep[ports.EnvironmentFactory](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[*telemetry.OTelTracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewBuilder(compiler, artifacts, infos, hasher, envFactory, tracer, log), nil
		},
	})
}
