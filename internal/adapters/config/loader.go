// Package config loads the ripple.yaml workspace manifest.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// supportedVersion is the only manifest version understood by this loader.
const supportedVersion = "1"

var validUnitNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Loader implements ports.ConfigLoader using a YAML manifest.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load finds the manifest above cwd and returns the workspace it describes.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	manifestPath, err := l.findManifest(cwd)
	if err != nil {
		return nil, err
	}

	data, err := l.FS.ReadFile(manifestPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", manifestPath)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", manifestPath)
	}

	if manifest.Version != "" && manifest.Version != supportedVersion {
		l.Logger.Warn(fmt.Sprintf("unknown manifest version %q in %s, reading it as version %s",
			manifest.Version, manifestPath, supportedVersion))
	}

	ws := domain.NewWorkspace()
	root := resolvePath(filepath.Dir(manifestPath), manifest.Root)
	ws.SetRoot(root)

	state := manifest.State
	if state == "" {
		state = domain.DefaultStatePath()
	}
	ws.SetStateDir(resolvePath(root, state))

	for i, dto := range manifest.Units {
		if dto == nil {
			return nil, zerr.With(domain.ErrMissingUnitName, "index", i)
		}
		unit, err := buildUnit(dto)
		if err != nil {
			return nil, zerr.With(err, "index", i)
		}
		if err := ws.AddUnit(unit); err != nil {
			return nil, err
		}
	}

	if ws.Len() == 0 {
		l.Logger.Warn(manifestPath + " declares no units")
	}

	return ws, nil
}

func (l *Loader) findManifest(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)
	for {
		candidate := filepath.Join(currentDir, domain.ManifestFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
		}
		currentDir = parentDir
	}
}

func buildUnit(dto *UnitDTO) (*domain.Unit, error) {
	if dto.Name == "" {
		return nil, domain.ErrMissingUnitName
	}
	if !validUnitNameRegex.MatchString(dto.Name) {
		return nil, zerr.With(domain.ErrInvalidUnitName, "unit", dto.Name)
	}
	if dto.Record == "" {
		return nil, zerr.With(domain.ErrMissingRecordPath, "unit", dto.Name)
	}

	return &domain.Unit{
		Name:    domain.NewInternedString(dto.Name),
		Sources: canonicalizeStrings(dto.Sources),
		Record:  domain.NewInternedString(filepath.Clean(dto.Record)),
	}, nil
}

// canonicalizeStrings sorts, deduplicates and interns strs.
func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}

	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return domain.NewInternedStrings(slices.Compact(sorted))
}

// resolvePath resolves configured against base unless it is absolute.
func resolvePath(base, configured string) string {
	if configured == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(base, configured))
}
