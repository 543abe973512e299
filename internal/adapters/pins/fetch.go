package pins

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/pinbuild/internal/core/domain"
	"go.trai.ch/zerr"
	"zombiezen.com/go/nix"
	"zombiezen.com/go/nix/nar"
)

const fetchTimeout = 5 * time.Minute

// Fetcher downloads pinned source tarballs and computes their NAR hash.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with a default HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// NewFetcherWithClient creates a fetcher using client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Hash downloads the tree of pin and returns the SRI form of its NAR hash.
// The archive's single top-level directory is stripped, as fetchTarball does.
func (f *Fetcher) Hash(ctx context.Context, pin domain.PinnedSource) (string, error) {
	url := pin.FetchURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fetchError(err, pin, url)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fetchError(err, pin, url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fetchError(fmt.Errorf("unexpected status code: %d", resp.StatusCode), pin, url)
	}

	tmp, err := os.MkdirTemp("", "pinbuild-fetch-*")
	if err != nil {
		return "", fetchError(err, pin, url)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	tree := filepath.Join(tmp, "source")
	if err := extractTarGz(tree, resp.Body); err != nil {
		return "", fetchError(err, pin, url)
	}

	return HashTree(tree)
}

// HashTree returns the SRI form of the NAR hash of the tree at dir.
func HashTree(dir string) (string, error) {
	h := nix.NewHasher(nix.SHA256)
	if err := nar.DumpPath(h, dir); err != nil {
		return "", zerr.With(zerr.Wrap(err, "hash source tree"), "path", dir)
	}
	return h.SumHash().SRI(), nil
}

func fetchError(err error, pin domain.PinnedSource, url string) error {
	wrapped := zerr.With(zerr.Wrap(err, "fetch pinned source"), "source", pin.Name)
	return zerr.With(wrapped, "url", url)
}

// extractTarGz unpacks a gzip-compressed tar stream into dst, stripping the
// first path component of every entry.
func extractTarGz(dst string, src io.Reader) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return err
	}
	defer func() { _ = gz.Close() }()

	if err := os.Mkdir(dst, domain.DirPerm); err != nil {
		return err
	}
	root, err := os.OpenRoot(dst)
	if err != nil {
		return err
	}
	defer func() { _ = root.Close() }()

	r := tar.NewReader(gz)
	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		name, ok := stripFirstComponent(hdr.Name)
		if !ok {
			continue
		}
		local, err := filepath.Localize(name)
		if err != nil {
			return err
		}
		if err := extractEntry(root, local, r, hdr); err != nil {
			return err
		}
	}
}

func stripFirstComponent(name string) (string, bool) {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	_, rest, ok := strings.Cut(name, "/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

func extractEntry(root *os.Root, name string, r io.Reader, hdr *tar.Header) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, domain.DirPerm); err != nil {
			return err
		}
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		err := root.Mkdir(name, domain.DirPerm)
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return err
	case tar.TypeReg:
		perm := os.FileMode(0o644)
		if hdr.Mode&0o111 != 0 {
			perm = 0o755
		}
		w, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err != nil {
			return err
		}
		//nolint:gosec // size is bounded by the pinned archive
		_, copyErr := io.Copy(w, r)
		closeErr := w.Close()
		return errors.Join(copyErr, closeErr)
	case tar.TypeSymlink:
		return root.Symlink(hdr.Linkname, name)
	case tar.TypeXGlobalHeader:
		return nil
	default:
		return fmt.Errorf("unsupported tar entry type %q for %s", hdr.Typeflag, hdr.Name)
	}
}
