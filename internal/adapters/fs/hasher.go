package fs

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher hashes unit sources and external dependencies with xxhash.
type Hasher struct {
	resolver ports.InputResolver
}

// NewHasher creates a new Hasher that expands source patterns with resolver.
func NewHasher(resolver ports.InputResolver) *Hasher {
	return &Hasher{resolver: resolver}
}

// ComputeFileHash returns the content hash of the file at path.
// A missing file hashes to the empty string.
func (h *Hasher) ComputeFileHash(path string) (string, error) {
	sum, err := fileDigest(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", sum), nil
}

// ComputeSourcesHash hashes the relative path and content of every file the
// patterns resolve to below root.
func (h *Hasher) ComputeSourcesHash(patterns []string, root string) (string, error) {
	files, err := h.resolver.ResolveInputs(patterns, root)
	if err != nil {
		return "", err
	}

	digest := xxhash.New()
	for _, file := range files {
		rel, relErr := filepath.Rel(root, file)
		if relErr != nil {
			rel = file
		}
		sum, err := fileDigest(file)
		if err != nil {
			return "", err
		}

		_, _ = digest.WriteString(filepath.ToSlash(rel))
		_, _ = digest.Write([]byte{0})
		_, _ = fmt.Fprintf(digest, "%016x", sum)
		_, _ = digest.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func fileDigest(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the manifest or a fact record
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return 0, err
		}
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	return digest.Sum64(), nil
}
