package domain

import "path/filepath"

const (
	// PinbuildDirName is the name of the internal workspace directory.
	PinbuildDirName = ".pinbuild"

	// StoreDirName is the name of the content addressable store directory.
	StoreDirName = "store"

	// InfoDirName is the name of the build info directory inside the store.
	InfoDirName = "info"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// ToolchainDirName is the name of the toolchain manifest cache directory.
	ToolchainDirName = "toolchains"

	// EnvDirName is the name of the environment cache directory.
	EnvDirName = "environments"

	// ProjectFileName is the name of the project descriptor.
	ProjectFileName = "pinbuild.yaml"

	// DefaultPinsFileName is the default name of the pins lock file.
	DefaultPinsFileName = "pins.lock"

	// DefaultGraphFileName is the default name of the generated package graph.
	DefaultGraphFileName = "pinbuild.graph.json"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600

	// ArtifactPerm is the permission for committed binaries (r-xr-xr-x).
	ArtifactPerm = 0o555
)

// DefaultPinbuildPath returns the default root directory for pinbuild metadata.
func DefaultPinbuildPath() string {
	return PinbuildDirName
}

// DefaultStorePath returns the default path for the content addressable store.
// It joins .pinbuild and store.
func DefaultStorePath() string {
	return filepath.Join(PinbuildDirName, StoreDirName)
}

// DefaultInfoPath returns the default path for build info records.
func DefaultInfoPath() string {
	return filepath.Join(PinbuildDirName, StoreDirName, InfoDirName)
}

// DefaultToolchainCachePath returns the repository-local toolchain manifest cache.
// It joins .pinbuild, cache, and toolchains.
func DefaultToolchainCachePath() string {
	return filepath.Join(PinbuildDirName, CacheDirName, ToolchainDirName)
}

// DefaultEnvCachePath returns the default path for the environment cache.
// It joins .pinbuild, cache, and environments.
func DefaultEnvCachePath() string {
	return filepath.Join(PinbuildDirName, CacheDirName, EnvDirName)
}

// DefaultCachePath returns the root of all repository-local caches.
func DefaultCachePath() string {
	return filepath.Join(PinbuildDirName, CacheDirName)
}
