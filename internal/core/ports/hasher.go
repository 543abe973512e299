package ports

// SourceHasher computes digests of local workspace sources.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type SourceHasher interface {
	// HashLocalSources hashes every file under root matched by patterns.
	// The digest is stable regardless of walk order.
	HashLocalSources(root string, patterns []string) (string, error)
}
