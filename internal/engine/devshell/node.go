package devshell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinbuild/internal/adapters/nix"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/adapters/shell" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinbuild/internal/core/ports"
)

// NodeID is the unique identifier for the development shell composer Graft node.
const NodeID graft.ID = "engine.devshell"

func init() {
	graft.Register(graft.Node[*Composer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{nix.EnvFactoryNodeID, shell.NodeID},
		Run: func(ctx context.Context) (*Composer, error) {
			envFactory, err := graft.Dep[ports.EnvironmentFactory](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			return NewComposer(envFactory, executor), nil
		},
	})
}
