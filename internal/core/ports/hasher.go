package ports

// FileHasher defines the interface for hashing file contents.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type FileHasher interface {
	// HashPath returns the content hash of a file, or of a directory tree.
	// Results are memoized until invalidated.
	HashPath(path string) (uint64, error)

	// HashOutputs returns a combined digest of paths relative to root without memoizing.
	HashOutputs(root string, paths []string) (string, error)

	// Invalidate drops memoized hashes of the given paths and of directories containing them.
	Invalidate(paths ...string)
}
