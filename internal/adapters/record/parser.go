// Package record decodes fact records written by the compiler frontend.
package record

import (
	"gopkg.in/yaml.v3"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RecordParser = (*Parser)(nil)

// PrivateTag marks a single dependency as non-cascading.
const PrivateTag = "!private"

const interfaceHashField = "interfaceHash"

// category is what a record key contributes to.
type category struct {
	kind     domain.FactKind
	provides bool
	cascades bool
}

// categories maps every accepted key spelling to its category.
// Both spellings of a key resolve to the same category, so giving both is a duplicate.
var categories = map[string]category{
	"providesTopLevel":      {kind: domain.KindTopLevel, provides: true},
	"providesNominal":       {kind: domain.KindNominal, provides: true},
	"providesDynamicLookup": {kind: domain.KindDynamicLookup, provides: true},
	"providesMember":        {kind: domain.KindMember, provides: true},

	"dependsTopLevel":      {kind: domain.KindTopLevel, cascades: true},
	"dependsNominal":       {kind: domain.KindNominal, cascades: true},
	"dependsDynamicLookup": {kind: domain.KindDynamicLookup, cascades: true},
	"dependsMember":        {kind: domain.KindMember, cascades: true},
	"dependsExternal":      {kind: domain.KindExternal, cascades: true},

	"dependsTopLevelPrivate":      {kind: domain.KindTopLevel},
	"dependsNominalPrivate":       {kind: domain.KindNominal},
	"dependsDynamicLookupPrivate": {kind: domain.KindDynamicLookup},
	"dependsMemberPrivate":        {kind: domain.KindMember},

	"provides-top-level":      {kind: domain.KindTopLevel, provides: true},
	"provides-nominal":        {kind: domain.KindNominal, provides: true},
	"provides-dynamic-lookup": {kind: domain.KindDynamicLookup, provides: true},
	"provides-member":         {kind: domain.KindMember, provides: true},
	"depends-top-level":       {kind: domain.KindTopLevel, cascades: true},
	"depends-nominal":         {kind: domain.KindNominal, cascades: true},
	"depends-dynamic-lookup":  {kind: domain.KindDynamicLookup, cascades: true},
	"depends-member":          {kind: domain.KindMember, cascades: true},
	"depends-external":        {kind: domain.KindExternal, cascades: true},
}

// aliases maps alternative spellings of non-category keys.
var aliases = map[string]string{
	"interface-hash": interfaceHashField,
}

// Parser implements ports.RecordParser for YAML fact records.
//
// A record is either one mapping or a sequence of single-key mappings:
//
//	providesTopLevel: [a, b]
//	dependsMember: [[T, m], !private [U, n]]
//	dependsExternal: [/usr/include/foo.h]
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// entry is one key/value pair of a record, whichever top-level form it came from.
type entry struct {
	key   *yaml.Node
	value *yaml.Node
}

// Parse decodes data into a record.
func (p *Parser) Parse(data []byte) (*domain.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, domain.ErrRecordParseFailed.Error())
	}

	rec := &domain.Record{}
	if len(doc.Content) == 0 {
		return rec, nil
	}

	entries, err := topLevelEntries(resolve(doc.Content[0]))
	if err != nil {
		return nil, err
	}

	seen := make(map[category]string, len(entries))
	seenHash := false

	for _, e := range entries {
		name := e.key.Value
		if alias, ok := aliases[name]; ok {
			name = alias
		}

		if name == interfaceHashField {
			if seenHash {
				return nil, withPosition(domain.ErrDuplicateRecordKey, e.key)
			}
			seenHash = true
			value := resolve(e.value)
			if !isScalar(value) {
				return nil, withPosition(domain.ErrMalformedName, value)
			}
			rec.InterfaceHash = value.Value
			continue
		}

		cat, ok := categories[name]
		if !ok {
			return nil, withPosition(domain.ErrUnknownRecordKey, e.key)
		}
		if first, dup := seen[cat]; dup {
			return nil, zerr.With(withPosition(domain.ErrDuplicateRecordKey, e.key), "first", first)
		}
		seen[cat] = e.key.Value

		if err := decodeCategory(rec, cat, e.value); err != nil {
			return nil, zerr.With(err, "key", e.key.Value)
		}
	}

	return rec, nil
}

func topLevelEntries(root *yaml.Node) ([]entry, error) {
	switch root.Kind {
	case yaml.MappingNode:
		entries := make([]entry, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			entries = append(entries, entry{key: root.Content[i], value: root.Content[i+1]})
		}
		return entries, nil
	case yaml.SequenceNode:
		entries := make([]entry, 0, len(root.Content))
		for _, item := range root.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
				return nil, withPosition(domain.ErrRecordShape, item)
			}
			entries = append(entries, entry{key: item.Content[0], value: item.Content[1]})
		}
		return entries, nil
	case yaml.ScalarNode:
		if isNull(root) {
			return nil, nil
		}
	}
	return nil, withPosition(domain.ErrRecordShape, root)
}

func decodeCategory(rec *domain.Record, cat category, value *yaml.Node) error {
	value = resolve(value)
	if isNull(value) {
		return nil
	}
	if value.Kind != yaml.SequenceNode {
		return withPosition(domain.ErrRecordValueNotSequence, value)
	}

	for _, raw := range value.Content {
		item := resolve(raw)
		key, err := decodeKey(cat.kind, item)
		if err != nil {
			return err
		}

		if cat.provides {
			rec.Provides = append(rec.Provides, key)
			continue
		}

		cascades := cat.cascades && raw.Tag != PrivateTag && item.Tag != PrivateTag
		rec.Depends = append(rec.Depends, domain.Dependency{Key: key, Cascades: cascades})
	}
	return nil
}

func decodeKey(kind domain.FactKind, item *yaml.Node) (domain.FactKey, error) {
	if kind == domain.KindMember {
		if item.Kind != yaml.SequenceNode || len(item.Content) != 2 {
			return domain.FactKey{}, withPosition(domain.ErrMalformedMember, item)
		}
		holder, member := resolve(item.Content[0]), resolve(item.Content[1])
		if !isScalar(holder) || !isScalar(member) {
			return domain.FactKey{}, withPosition(domain.ErrMalformedMember, item)
		}
		return domain.Member(holder.Value, member.Value), nil
	}

	if !isScalar(item) {
		return domain.FactKey{}, withPosition(domain.ErrMalformedName, item)
	}
	return domain.FactKey{Kind: kind, Name: domain.NewInternedString(item.Value)}, nil
}

// resolve follows aliases to the anchored node.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func isScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && !isNull(n)
}

func withPosition(err error, n *yaml.Node) error {
	return zerr.With(zerr.With(err, "line", n.Line), "column", n.Column)
}
