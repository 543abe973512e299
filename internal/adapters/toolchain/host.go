package toolchain

import (
	"runtime"

	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// Platform names a machine both as a rustc target triple and as a Nix system.
type Platform struct {
	Triple    string
	NixSystem string
}

var platforms = map[string]Platform{
	"darwin/amd64": {Triple: "x86_64-apple-darwin", NixSystem: "x86_64-darwin"},
	"darwin/arm64": {Triple: "aarch64-apple-darwin", NixSystem: "aarch64-darwin"},
	"linux/amd64":  {Triple: "x86_64-unknown-linux-gnu", NixSystem: "x86_64-linux"},
	"linux/arm64":  {Triple: "aarch64-unknown-linux-gnu", NixSystem: "aarch64-linux"},
}

// Host returns the platform of the running machine.
func Host() (Platform, error) {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

// PlatformFor returns the platform of a GOOS/GOARCH pair. Pairs that Nix and
// the Rust distribution do not both support are an error.
func PlatformFor(goos, goarch string) (Platform, error) {
	p, ok := platforms[goos+"/"+goarch]
	if !ok {
		err := zerr.With(zerr.Wrap(domain.ErrUnsupportedPlatform, goos+"/"+goarch), "goos", goos)
		return Platform{}, zerr.With(err, "goarch", goarch)
	}
	return p, nil
}
