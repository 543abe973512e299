package toolchain

import "net/http"

// NewResolverWithClient exports newResolverWithClient for testing.
func NewResolverWithClient(cacheDir, distBase string, client *http.Client) (*Resolver, error) {
	return newResolverWithClient(cacheDir, distBase, client)
}

// ParseChecksum exports parseChecksum for testing.
func ParseChecksum(body []byte) (string, error) {
	h, err := parseChecksum(body)
	if err != nil {
		return "", err
	}
	return h.SRI(), nil
}
