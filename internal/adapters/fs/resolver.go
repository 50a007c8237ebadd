package fs

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements ports.InputResolver using filepath.Glob.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver that expands matched directories with walker.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveInputs expands patterns below root into a sorted, deduplicated list of
// existing files. A pattern matching nothing contributes nothing.
func (r *Resolver) ResolveInputs(patterns []string, root string) ([]string, error) {
	unique := make(map[string]struct{})

	for _, pattern := range patterns {
		path := pattern
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, pattern)
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", pattern)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "path", match)
			}
			if !info.IsDir() {
				unique[match] = struct{}{}
				continue
			}
			for file := range r.walker.WalkFiles(match, nil) {
				unique[file] = struct{}{}
			}
		}
	}

	result := make([]string, 0, len(unique))
	for path := range unique {
		result = append(result, path)
	}
	slices.Sort(result)

	return result, nil
}
