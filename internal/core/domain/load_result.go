package domain

import "fmt"

// LoadResult is the outcome of loading a fact record into the graph.
type LoadResult uint8

const (
	// LoadUpToDate means the record was parsed and installed.
	LoadUpToDate LoadResult = iota
	// LoadNeedsNonexistent means the node has no record yet and must be built before it has facts.
	LoadNeedsNonexistent
	// LoadHadError means the record was unreadable or malformed; the node's facts are unchanged.
	LoadHadError
)

// String returns the lower-case name of the result.
func (r LoadResult) String() string {
	switch r {
	case LoadUpToDate:
		return "up-to-date"
	case LoadNeedsNonexistent:
		return "needs-nonexistent"
	case LoadHadError:
		return "had-error"
	default:
		return fmt.Sprintf("LoadResult(%d)", uint8(r))
	}
}
