package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinbuild/internal/adapters/cargo"     //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/pins"      //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/toolchain" //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pinbuild/internal/core/ports"
	"go.trai.ch/pinbuild/internal/engine/builder"
	"go.trai.ch/pinbuild/internal/engine/devshell"
	"go.trai.ch/pinbuild/internal/engine/selector"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			pins.NodeID,
			toolchain.NodeID,
			cargo.LoaderNodeID,
			cargo.GeneratorNodeID,
			cas.NodeID,
			builder.NodeID,
			selector.NodeID,
			devshell.NodeID,
			telemetry.TracerNodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

//nolint:cyclop // one lookup per dependency
func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Deps
		err  error
	)

	if deps.ConfigLoader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if deps.PinStore, err = graft.Dep[ports.PinStore](ctx); err != nil {
		return nil, err
	}
	if deps.Toolchains, err = graft.Dep[ports.ToolchainResolver](ctx); err != nil {
		return nil, err
	}
	if deps.GraphLoader, err = graft.Dep[ports.GraphLoader](ctx); err != nil {
		return nil, err
	}
	if deps.GraphGenerator, err = graft.Dep[ports.GraphGenerator](ctx); err != nil {
		return nil, err
	}
	if deps.BuildInfos, err = graft.Dep[ports.BuildInfoStore](ctx); err != nil {
		return nil, err
	}
	if deps.Builder, err = graft.Dep[*builder.Builder](ctx); err != nil {
		return nil, err
	}
	if deps.Selector, err = graft.Dep[*selector.Selector](ctx); err != nil {
		return nil, err
	}
	if deps.Composer, err = graft.Dep[*devshell.Composer](ctx); err != nil {
		return nil, err
	}
	if deps.Tracer, err = graft.Dep[*telemetry.OTelTracer](ctx); err != nil {
		return nil, err
	}
	if deps.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}

	return New(deps), nil
}
