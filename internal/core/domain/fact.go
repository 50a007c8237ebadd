// Package domain contains the core domain models of the incremental dependency graph.
package domain

import (
	"cmp"
	"fmt"
)

// FactKind is the category a provided or depended-upon name belongs to.
// Names only match within the same kind.
type FactKind uint8

const (
	// KindTopLevel is a top-level declaration such as a free function or a global.
	KindTopLevel FactKind = iota
	// KindNominal is a nominal type declaration.
	KindNominal
	// KindDynamicLookup is a member name reachable through dynamic lookup.
	KindDynamicLookup
	// KindMember is a (holder, member) pair.
	KindMember
	// KindExternal is a path outside the graph. It only ever appears as a dependency.
	KindExternal
)

// FactKinds lists every kind in record order.
var FactKinds = []FactKind{KindTopLevel, KindNominal, KindDynamicLookup, KindMember, KindExternal}

// String returns the record spelling of the kind.
func (k FactKind) String() string {
	switch k {
	case KindTopLevel:
		return "topLevel"
	case KindNominal:
		return "nominal"
	case KindDynamicLookup:
		return "dynamicLookup"
	case KindMember:
		return "member"
	case KindExternal:
		return "external"
	default:
		return fmt.Sprintf("FactKind(%d)", uint8(k))
	}
}

// FactKey identifies one provided or depended-upon name.
// Holder is only meaningful for KindMember; the empty member name is a
// distinct key from every non-empty member of the same holder.
type FactKey struct {
	Kind   FactKind
	Holder InternedString
	Name   InternedString
}

// TopLevel returns the key for a top-level name.
func TopLevel(name string) FactKey {
	return FactKey{Kind: KindTopLevel, Name: NewInternedString(name)}
}

// Nominal returns the key for a nominal type name.
func Nominal(name string) FactKey {
	return FactKey{Kind: KindNominal, Name: NewInternedString(name)}
}

// DynamicLookup returns the key for a dynamic-lookup name.
func DynamicLookup(name string) FactKey {
	return FactKey{Kind: KindDynamicLookup, Name: NewInternedString(name)}
}

// Member returns the key for a (holder, member) pair.
func Member(holder, member string) FactKey {
	return FactKey{Kind: KindMember, Holder: NewInternedString(holder), Name: NewInternedString(member)}
}

// External returns the key for an external path.
func External(path string) FactKey {
	return FactKey{Kind: KindExternal, Name: NewInternedString(path)}
}

// String renders the key as kind:name or member:holder.name.
func (k FactKey) String() string {
	if k.Kind == KindMember {
		return fmt.Sprintf("%s:%s.%s", k.Kind, k.Holder, k.Name)
	}
	return fmt.Sprintf("%s:%s", k.Kind, k.Name)
}

// Compare orders keys by kind, then holder, then name.
func (k FactKey) Compare(other FactKey) int {
	if c := cmp.Compare(k.Kind, other.Kind); c != 0 {
		return c
	}
	if c := k.Holder.Compare(other.Holder); c != 0 {
		return c
	}
	return k.Name.Compare(other.Name)
}

// Dependency is one depended-upon key of a node.
// A cascading dependency propagates invalidation through the dependent;
// a non-cascading one stops at it.
type Dependency struct {
	Key      FactKey
	Cascades bool
}

// String renders the dependency, suffixing non-cascading entries with (private).
func (d Dependency) String() string {
	if d.Cascades {
		return d.Key.String()
	}
	return d.Key.String() + " (private)"
}

// Record is the parsed fact record of one node.
type Record struct {
	// Provides lists the names the node declares. External keys never appear here.
	Provides []FactKey
	// Depends lists the names the node uses, including external paths.
	Depends []Dependency
	// InterfaceHash is an optional fingerprint of the node's interface supplied by the producer.
	InterfaceHash string
}
