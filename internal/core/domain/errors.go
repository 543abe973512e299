package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownSource is returned when a pin name is absent from the source pin registry.
	ErrUnknownSource = zerr.New("unknown source")

	// ErrInvalidPin is returned when a pinned source record is malformed.
	ErrInvalidPin = zerr.New("invalid pinned source")

	// ErrPinHashMismatch is returned when a source tree does not match its recorded hash.
	ErrPinHashMismatch = zerr.New("pinned source hash mismatch")

	// ErrPinsReadFailed is returned when the pins lock file cannot be read.
	ErrPinsReadFailed = zerr.New("failed to read pins lock file")

	// ErrPinsParseFailed is returned when the pins lock file cannot be parsed.
	ErrPinsParseFailed = zerr.New("failed to parse pins lock file")

	// ErrPinsWriteFailed is returned when the pins lock file cannot be written.
	ErrPinsWriteFailed = zerr.New("failed to write pins lock file")

	// ErrToolchainNotFound is returned when a (channel, version) pair has no published release.
	ErrToolchainNotFound = zerr.New("toolchain not found")

	// ErrFloatingToolchain is returned when a toolchain version is not an explicit pin (e.g. "latest").
	ErrFloatingToolchain = zerr.New("toolchain version must be an explicit release pin")

	// ErrUnknownChannel is returned when a toolchain channel is not stable, beta or nightly.
	ErrUnknownChannel = zerr.New("unknown toolchain channel")

	// ErrInvalidTarget is returned when a toolchain target is not a valid target triple.
	ErrInvalidTarget = zerr.New("invalid toolchain target")

	// ErrUnsupportedPlatform is returned when the host has no known target triple or Nix system.
	ErrUnsupportedPlatform = zerr.New("unsupported host platform")

	// ErrToolchainRequestFailed is returned when the toolchain distribution server cannot be queried.
	ErrToolchainRequestFailed = zerr.New("failed to query toolchain distribution server")

	// ErrGraphResolution is returned on duplicate units, missing dependencies,
	// cycles or missing native dependency bindings in the package graph.
	ErrGraphResolution = zerr.New("package graph resolution failed")

	// ErrGraphReadFailed is returned when the package graph file cannot be read.
	ErrGraphReadFailed = zerr.New("failed to read package graph")

	// ErrGraphParseFailed is returned when the package graph file cannot be parsed.
	ErrGraphParseFailed = zerr.New("failed to parse package graph")

	// ErrGraphGenerateFailed is returned when the package graph cannot be generated from the lockfile.
	ErrGraphGenerateFailed = zerr.New("failed to generate package graph")

	// ErrUnitNotFound is returned when a requested unit is absent from the package set.
	ErrUnitNotFound = zerr.New("unit not found")

	// ErrNoBinaryTarget is returned when a selected unit builds no binary.
	ErrNoBinaryTarget = zerr.New("unit has no binary target")

	// ErrBinaryMissing is returned when a built binary is missing or not executable.
	ErrBinaryMissing = zerr.New("built binary is missing or not executable")

	// ErrExternalCompilation is returned when the external compiler fails.
	ErrExternalCompilation = zerr.New("external compilation failed")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrInputHashComputationFailed is returned when hashing local sources fails.
	ErrInputHashComputationFailed = zerr.New("failed to compute input hash")

	// ErrStoreCreateFailed is returned when a store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create store directory")

	// ErrStoreCommitFailed is returned when a build output cannot be committed to the store.
	ErrStoreCommitFailed = zerr.New("failed to commit build output")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no pinbuild.yaml is found.
	ErrConfigNotFound = zerr.New("could not find pinbuild.yaml")

	// ErrInvalidConfig is returned when the project descriptor fails validation.
	ErrInvalidConfig = zerr.New("invalid project descriptor")

	// ErrInvalidUnitName is returned when a unit or workspace name contains invalid characters.
	ErrInvalidUnitName = zerr.New("name can only contain alphanumeric characters, hyphens and underscores")

	// ErrUndeclaredNativeDependency is returned when an override names a native dependency
	// that is not in the native dependency list.
	ErrUndeclaredNativeDependency = zerr.New("native dependency is not declared")

	// ErrNixCacheCreateFailed is returned when the Nix cache directory cannot be created.
	ErrNixCacheCreateFailed = zerr.New("failed to create Nix cache directory")

	// ErrNixCacheReadFailed is returned when reading from a cache fails.
	ErrNixCacheReadFailed = zerr.New("failed to read from cache")

	// ErrNixCacheWriteFailed is returned when writing to a cache fails.
	ErrNixCacheWriteFailed = zerr.New("failed to write to cache")

	// ErrNixEvalFailed is returned when evaluating the development environment fails.
	ErrNixEvalFailed = zerr.New("failed to evaluate nix environment")

	// ErrCacheMiss is returned when a requested item is not found in the cache.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrShellEnterFailed is returned when the environment of a development shell cannot be applied.
	ErrShellEnterFailed = zerr.New("failed to enter development shell")
)
