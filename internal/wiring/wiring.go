// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/pinbuild/internal/adapters/cargo"
	_ "go.trai.ch/pinbuild/internal/adapters/cas"
	_ "go.trai.ch/pinbuild/internal/adapters/config"
	_ "go.trai.ch/pinbuild/internal/adapters/fs"
	_ "go.trai.ch/pinbuild/internal/adapters/logger"
	_ "go.trai.ch/pinbuild/internal/adapters/nix"
	_ "go.trai.ch/pinbuild/internal/adapters/pins"
	_ "go.trai.ch/pinbuild/internal/adapters/shell"
	_ "go.trai.ch/pinbuild/internal/adapters/telemetry"
	_ "go.trai.ch/pinbuild/internal/adapters/toolchain"
	_ "go.trai.ch/pinbuild/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/pinbuild/internal/app"
	_ "go.trai.ch/pinbuild/internal/engine/builder"
	_ "go.trai.ch/pinbuild/internal/engine/devshell"
	_ "go.trai.ch/pinbuild/internal/engine/selector"
)
