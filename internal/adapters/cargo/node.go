package cargo

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinbuild/internal/adapters/shell"
	"go.trai.ch/pinbuild/internal/core/ports"
)

const (
	// LoaderNodeID is the unique identifier for the graph loader Graft node.
	LoaderNodeID graft.ID = "adapter.graph_loader"
	// GeneratorNodeID is the unique identifier for the graph generator Graft node.
	GeneratorNodeID graft.ID = "adapter.graph_generator"
	// CompilerNodeID is the unique identifier for the compiler Graft node.
	CompilerNodeID graft.ID = "adapter.compiler"
)

func init() {
	graft.Register(graft.Node[ports.GraphLoader]{
		ID:        LoaderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.GraphLoader, error) {
			return NewLoader(), nil
		},
	})

	graft.Register(graft.Node[ports.GraphGenerator]{
		ID:        GeneratorNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.GraphGenerator, error) {
			return NewGenerator(), nil
		},
	})

	graft.Register(graft.Node[ports.Compiler]{
		ID:        CompilerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.Compiler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewCompiler(executor), nil
		},
	})
}
