// Package toolchain implements the ToolchainResolver port against the Rust
// distribution server.
package toolchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/pinbuild/internal/adapters/atomicfile"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"go4.org/xdgdir"
	"zombiezen.com/go/nix"
)

const (
	// DefaultDistBase is the root of the published toolchain channel manifests.
	DefaultDistBase   = "https://static.rust-lang.org/dist"
	httpClientTimeout = 30 * time.Second

	maxChecksumSize = 4 << 10
	maxManifestSize = 32 << 20

	// stdPackage is the manifest package whose per-target availability
	// decides which targets a toolchain can build for.
	stdPackage = "rust-std"
)

var (
	releaseVersion = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
	datedVersion   = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	targetTriple   = regexp.MustCompile(`^[a-z0-9_.]+(-[a-z0-9_.]+){1,3}$`)
	sha256Hex      = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Resolver implements ports.ToolchainResolver with a local cache of published
// releases.
type Resolver struct {
	cacheDir   string
	distBase   string
	httpClient *http.Client
}

// release is what the resolver records of one published (channel, version).
type release struct {
	manifestHash string
	// targets are the sorted triples the standard library is published for.
	targets []string
}

// cacheEntry is the cached release of one (channel, version).
type cacheEntry struct {
	Channel      string    `json:"channel"`
	Version      string    `json:"version"`
	ManifestHash string    `json:"manifestHash"`
	Targets      []string  `json:"targets"`
	Timestamp    time.Time `json:"timestamp"`
}

// channelManifest is the subset of a channel-rust-*.toml manifest the
// resolver reads.
type channelManifest struct {
	Pkg map[string]manifestPackage `toml:"pkg"`
}

type manifestPackage struct {
	Target map[string]manifestTarget `toml:"target"`
}

type manifestTarget struct {
	Available bool `toml:"available"`
}

// NewResolver creates a new resolver caching under the user cache directory.
func NewResolver() (*Resolver, error) {
	return newResolverWithClient(defaultCacheDir(), DefaultDistBase, &http.Client{
		Timeout: httpClientTimeout,
	})
}

func newResolverWithClient(cacheDir, distBase string, client *http.Client) (*Resolver, error) {
	cleanPath := filepath.Clean(cacheDir)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixCacheCreateFailed.Error())
	}

	return &Resolver{
		cacheDir:   cleanPath,
		distBase:   strings.TrimSuffix(distBase, "/"),
		httpClient: client,
	}, nil
}

func defaultCacheDir() string {
	if dir := xdgdir.Cache.Path(); dir != "" {
		return filepath.Join(dir, "pinbuild", domain.ToolchainDirName)
	}
	return domain.DefaultToolchainCachePath()
}

// Resolve returns the pinned descriptor of the published (channel, version)
// release. Empty targets default to the host triple. Every target must be
// published for the release.
func (r *Resolver) Resolve(ctx context.Context, channel, version string, targets []string) (domain.Toolchain, error) {
	if !domain.IsKnownChannel(channel) {
		return domain.Toolchain{}, zerr.With(zerr.Wrap(domain.ErrUnknownChannel, channel), "channel", channel)
	}
	if err := checkPinned(channel, version); err != nil {
		return domain.Toolchain{}, err
	}

	normalized, err := normalizeTargets(targets)
	if err != nil {
		return domain.Toolchain{}, err
	}

	cachePath := r.getCachePath(channel, version)
	rel, err := r.loadFromCache(cachePath)
	if err != nil {
		rel, err = r.queryRelease(ctx, channel, version)
		if err != nil {
			return domain.Toolchain{}, err
		}
		// Cache write failures are not fatal; the next run queries again.
		_ = r.saveToCache(cachePath, channel, version, rel)
	}

	if err := checkPublished(rel, channel, version, normalized); err != nil {
		return domain.Toolchain{}, err
	}

	return domain.Toolchain{
		Channel:      channel,
		Version:      version,
		Targets:      normalized,
		ManifestHash: rel.manifestHash,
	}, nil
}

// checkPinned rejects versions that would resolve differently over time.
func checkPinned(channel, version string) error {
	floating := func() error {
		err := zerr.With(zerr.Wrap(domain.ErrFloatingToolchain, channel+"@"+version), "channel", channel)
		return zerr.With(err, "version", version)
	}

	switch {
	case version == "", version == "latest", version == channel:
		return floating()
	case channel == domain.ChannelStable && !releaseVersion.MatchString(version):
		return floating()
	case channel != domain.ChannelStable && !datedVersion.MatchString(version):
		return floating()
	}
	return nil
}

func normalizeTargets(targets []string) ([]string, error) {
	if len(targets) == 0 {
		host, err := Host()
		if err != nil {
			return nil, err
		}
		return []string{host.Triple}, nil
	}

	out := slices.Clone(targets)
	for _, t := range out {
		if !targetTriple.MatchString(t) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidTarget, t), "target", t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// checkPublished rejects targets the release ships no standard library for.
func checkPublished(rel release, channel, version string, targets []string) error {
	for _, t := range targets {
		if _, found := slices.BinarySearch(rel.targets, t); found {
			continue
		}
		err := zerr.Wrap(domain.ErrInvalidTarget, fmt.Sprintf("%s is not published for %s@%s", t, channel, version))
		err = zerr.With(zerr.With(err, "target", t), "channel", channel)
		return zerr.With(err, "version", version)
	}
	return nil
}

// manifestURL returns the URL of the channel manifest.
func (r *Resolver) manifestURL(channel, version string) string {
	if channel == domain.ChannelStable {
		return fmt.Sprintf("%s/channel-rust-%s.toml", r.distBase, version)
	}
	return fmt.Sprintf("%s/%s/channel-rust-%s.toml", r.distBase, version, channel)
}

// queryRelease downloads the channel manifest, verifies it against its
// published checksum and reads the targets it ships the standard library for.
func (r *Resolver) queryRelease(ctx context.Context, channel, version string) (release, error) {
	url := r.manifestURL(channel, version)

	sum, err := r.fetch(ctx, url+".sha256", maxChecksumSize, channel, version)
	if err != nil {
		return release{}, err
	}
	digest, err := parseChecksum(sum)
	if err != nil {
		return release{}, err
	}

	manifest, err := r.fetch(ctx, url, maxManifestSize, channel, version)
	if err != nil {
		return release{}, err
	}
	h := nix.NewHasher(nix.SHA256)
	_, _ = h.Write(manifest)
	if got := h.SumHash(); !got.Equal(digest) {
		err := zerr.Wrap(domain.ErrToolchainRequestFailed, "channel manifest does not match its checksum")
		err = zerr.With(zerr.With(err, "expected", digest.SRI()), "actual", got.SRI())
		return release{}, zerr.With(err, "url", url)
	}

	targets, err := publishedTargets(manifest)
	if err != nil {
		return release{}, zerr.With(err, "url", url)
	}

	return release{manifestHash: digest.SRI(), targets: targets}, nil
}

func (r *Resolver) fetch(ctx context.Context, url string, limit int64, channel, version string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrToolchainRequestFailed.Error())
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrToolchainRequestFailed.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		notFoundErr := zerr.With(zerr.Wrap(domain.ErrToolchainNotFound, channel+"@"+version), "channel", channel)
		return nil, zerr.With(notFoundErr, "version", version)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := zerr.With(domain.ErrToolchainRequestFailed, "status_code", resp.StatusCode)
		apiErr = zerr.With(apiErr, "channel", channel)
		return nil, zerr.With(apiErr, "version", version)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrToolchainRequestFailed.Error())
	}
	return body, nil
}

// parseChecksum reads the digest of a "<hex>  <file>" checksum file.
func parseChecksum(body []byte) (nix.Hash, error) {
	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return nix.Hash{}, zerr.Wrap(errors.New("empty checksum file"), domain.ErrToolchainRequestFailed.Error())
	}
	if !sha256Hex.MatchString(fields[0]) {
		return nix.Hash{}, zerr.With(domain.ErrToolchainRequestFailed, "checksum", fields[0])
	}

	h, err := nix.ParseHash("sha256:" + fields[0])
	if err != nil {
		return nix.Hash{}, zerr.Wrap(err, domain.ErrToolchainRequestFailed.Error())
	}
	return h, nil
}

// publishedTargets returns the sorted triples the manifest marks the
// standard library available for.
func publishedTargets(manifest []byte) ([]string, error) {
	var m channelManifest
	if err := toml.Unmarshal(manifest, &m); err != nil {
		return nil, zerr.Wrap(err, domain.ErrToolchainRequestFailed.Error())
	}

	std, ok := m.Pkg[stdPackage]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrToolchainRequestFailed, "manifest has no "+stdPackage+" package"), "package", stdPackage)
	}

	targets := make([]string, 0, len(std.Target))
	for triple, t := range std.Target {
		if t.Available {
			targets = append(targets, triple)
		}
	}
	slices.Sort(targets)
	return targets, nil
}

func (r *Resolver) getCachePath(channel, version string) string {
	hash := sha256.Sum256([]byte(channel + "@" + version))
	return filepath.Join(r.cacheDir, hex.EncodeToString(hash[:])+".json")
}

func (r *Resolver) loadFromCache(path string) (release, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return release{}, domain.ErrCacheMiss
		}
		return release{}, zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return release{}, zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}
	// Entries written before targets were recorded are refreshed.
	if entry.ManifestHash == "" || len(entry.Targets) == 0 {
		return release{}, domain.ErrCacheMiss
	}
	targets := slices.Clone(entry.Targets)
	slices.Sort(targets)
	return release{manifestHash: entry.ManifestHash, targets: targets}, nil
}

func (r *Resolver) saveToCache(path, channel, version string, rel release) error {
	entry := cacheEntry{
		Channel:      channel,
		Version:      version,
		ManifestHash: rel.manifestHash,
		Targets:      rel.targets,
		Timestamp:    time.Now(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}

	if err := atomicfile.Write(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}
	return nil
}
