package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Locator types understood by the pin registry.
const (
	LocatorGitHub  = "github"
	LocatorTarball = "tarball"
)

// Locator describes where a pinned source tree is fetched from.
type Locator struct {
	Type  string `json:"type"`
	Owner string `json:"owner,omitempty"`
	Repo  string `json:"repo,omitempty"`
	URL   string `json:"url,omitempty"`
}

// PinnedSource is an exact, immutable reference to an external source tree.
// Hash is the SRI form ("sha256-...") of the NAR hash of the unpacked tree.
type PinnedSource struct {
	Name    string  `json:"-"`
	Locator Locator `json:"locator"`
	Rev     string  `json:"rev"`
	Hash    string  `json:"narHash"`
}

// FetchURL returns the URL a fetcher downloads the pinned tree from.
func (p PinnedSource) FetchURL() string {
	switch p.Locator.Type {
	case LocatorGitHub:
		return fmt.Sprintf("https://github.com/%s/%s/archive/%s.tar.gz", p.Locator.Owner, p.Locator.Repo, p.Rev)
	default:
		return p.Locator.URL
	}
}

// String renders the pin as "name@rev".
func (p PinnedSource) String() string {
	return p.Name + "@" + p.Rev
}

// PinSet is a complete name to pinned source mapping.
// It is passed around as an explicit value; there is no process-wide pin set.
type PinSet map[string]PinnedSource

// Names returns the pin names in sorted order.
func (s PinSet) Names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns a shallow copy of s.
func (s PinSet) Clone() PinSet {
	return maps.Clone(s)
}
