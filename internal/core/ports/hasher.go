package ports

// Hasher defines the interface for computing content hashes.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeFileHash hashes a single file. A missing file hashes to the empty string.
	ComputeFileHash(path string) (string, error)

	// ComputeSourcesHash hashes the files matched by patterns below root.
	ComputeSourcesHash(patterns []string, root string) (string, error)
}

// InputResolver defines the interface for resolving source globs.
type InputResolver interface {
	// ResolveInputs resolves patterns relative to root into a sorted list of existing files.
	ResolveInputs(patterns []string, root string) ([]string, error)
}
