package domain

import (
	"iter"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// Unit is one compilation unit of the workspace.
type Unit struct {
	// Name identifies the unit and doubles as its node handle in the dependency graph.
	Name InternedString
	// Sources are glob patterns, relative to the workspace root, of the files compiled into the unit.
	Sources []InternedString
	// Record is the path, relative to the workspace root, of the unit's fact record.
	Record InternedString
}

// Workspace is the set of units described by a manifest.
type Workspace struct {
	root     string
	stateDir string
	units    map[InternedString]Unit
}

// NewWorkspace creates a new empty Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		units: make(map[InternedString]Unit),
	}
}

// SetRoot sets the absolute workspace root.
func (w *Workspace) SetRoot(root string) {
	w.root = root
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string {
	return w.root
}

// SetStateDir sets the absolute state directory.
func (w *Workspace) SetStateDir(dir string) {
	w.stateDir = dir
}

// StateDir returns the absolute state directory.
func (w *Workspace) StateDir() string {
	return w.stateDir
}

// AddUnit adds a unit to the workspace.
// It returns an error if a unit with the same name already exists.
func (w *Workspace) AddUnit(u *Unit) error {
	if _, exists := w.units[u.Name]; exists {
		return zerr.With(ErrUnitAlreadyExists, "unit", u.Name.String())
	}
	w.units[u.Name] = *u
	return nil
}

// Unit returns the unit with the given name.
func (w *Workspace) Unit(name string) (Unit, bool) {
	u, ok := w.units[NewInternedString(name)]
	return u, ok
}

// Len returns the number of units.
func (w *Workspace) Len() int {
	return len(w.units)
}

// Units iterates the units in name order.
func (w *Workspace) Units() iter.Seq[Unit] {
	names := slices.SortedFunc(maps.Keys(w.units), InternedString.Compare)
	return func(yield func(Unit) bool) {
		for _, name := range names {
			if !yield(w.units[name]) {
				return
			}
		}
	}
}
