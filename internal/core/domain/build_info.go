package domain

import "time"

const (
	// UnitKeyPrefix prefixes build info keys of compilation units.
	UnitKeyPrefix = "unit:"
	// ExternalKeyPrefix prefixes build info keys of external dependencies.
	ExternalKeyPrefix = "external:"
)

// BuildInfo is the state remembered about a unit or external path after a committed plan.
type BuildInfo struct {
	Key           string    `json:"key,omitzero"`
	ContentHash   string    `json:"content_hash,omitzero"`
	InterfaceHash string    `json:"interface_hash,omitzero"`
	Timestamp     time.Time `json:"timestamp,omitzero"`
	// Rebuilt is set on units the committed plan scheduled. Their next record
	// is expected to differ from the one the plan saw.
	Rebuilt       bool      `json:"rebuilt,omitzero"`
}

// UnitKey returns the build info key of a unit.
func UnitKey(name string) string {
	return UnitKeyPrefix + name
}

// ExternalKey returns the build info key of an external path.
func ExternalKey(path string) string {
	return ExternalKeyPrefix + path
}
