package domain

import "fmt"

// Reason explains why a unit was scheduled for recompilation.
type Reason uint8

const (
	// ReasonNew means the unit has no fact record yet.
	ReasonNew Reason = iota
	// ReasonCorruptRecord means the unit's fact record could not be loaded.
	ReasonCorruptRecord
	// ReasonModified means the unit's sources changed.
	ReasonModified
	// ReasonInterfaceChanged means the unit uses a name whose provider changed its
	// interface without being scheduled with it.
	ReasonInterfaceChanged
	// ReasonExternal means an external file the unit depends on changed.
	ReasonExternal
	// ReasonDependent means the unit uses a name provided by another invalidated unit.
	ReasonDependent
)

// String returns the report spelling of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNew:
		return "new"
	case ReasonCorruptRecord:
		return "corrupt-record"
	case ReasonModified:
		return "modified"
	case ReasonInterfaceChanged:
		return "interface-changed"
	case ReasonExternal:
		return "external"
	case ReasonDependent:
		return "dependent"
	default:
		return fmt.Sprintf("Reason(%d)", uint8(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// PlannedUnit is one unit of a recompilation plan.
type PlannedUnit struct {
	Name   string   `json:"name"`
	Reason Reason   `json:"reason"`
	Trace  []string `json:"trace,omitempty"`
}

// Plan is the ordered set of units that must be recompiled.
type Plan struct {
	// Units are listed in the order they were invalidated.
	Units []PlannedUnit `json:"units"`
	// ChangedExternals are the external paths whose content differs from the last commit.
	ChangedExternals []string `json:"changed_externals,omitempty"`
	// Failed maps units with unreadable records to the load error.
	Failed map[string]string `json:"failed,omitempty"`
}

// Empty reports whether nothing needs recompiling.
func (p *Plan) Empty() bool {
	return len(p.Units) == 0
}

// Names returns the planned unit names in plan order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Units))
	for i, u := range p.Units {
		names[i] = u.Name
	}
	return names
}
