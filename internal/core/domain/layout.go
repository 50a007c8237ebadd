package domain

import "path/filepath"

const (
	// StateDirName is the default name of the internal state directory.
	StateDirName = ".ripple"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "store"

	// DotDirName is the name of the directory DOT snapshots are written to.
	DotDirName = "dot"

	// ManifestFileName is the name of the workspace manifest.
	ManifestFileName = "ripple.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStatePath returns the default root directory for ripple metadata.
func DefaultStatePath() string {
	return StateDirName
}

// StorePath returns the build info store directory below the given state directory.
func StorePath(stateDir string) string {
	return filepath.Join(stateDir, StoreDirName)
}

// DotPath returns the DOT snapshot directory below the given state directory.
func DotPath(stateDir string) string {
	return filepath.Join(stateDir, DotDirName)
}
