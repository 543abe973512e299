package domain

import "strings"

// Toolchain release channels.
const (
	ChannelStable  = "stable"
	ChannelBeta    = "beta"
	ChannelNightly = "nightly"
)

// Toolchain is a fully pinned compiler toolchain.
// ManifestHash is the published hash of the channel manifest in SRI form,
// which makes the descriptor content-addressed.
type Toolchain struct {
	Channel      string   `json:"channel"`
	Version      string   `json:"version"`
	Targets      []string `json:"targets"`
	ManifestHash string   `json:"manifestHash"`
}

// Identity returns a stable textual identity of the toolchain.
func (t Toolchain) Identity() string {
	return t.Channel + "@" + t.Version + "[" + strings.Join(t.Targets, ",") + "]#" + t.ManifestHash
}

// IsZero reports whether t was never resolved.
func (t Toolchain) IsZero() bool {
	return t.Channel == "" && t.Version == ""
}

// IsKnownChannel reports whether channel is one of the published release channels.
func IsKnownChannel(channel string) bool {
	switch channel {
	case ChannelStable, ChannelBeta, ChannelNightly:
		return true
	default:
		return false
	}
}
