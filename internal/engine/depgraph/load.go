package depgraph

import (
	"errors"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

// Load parses data as the fact record of node and replaces the node's previous facts.
// On a parse error the graph is left untouched and LoadHadError is returned.
func (g *Graph[N]) Load(node N, data []byte) domain.LoadResult {
	rec, err := g.parser.Parse(data)
	if err != nil {
		g.nodes[node] = struct{}{}
		g.loadErrors[node] = err
		return domain.LoadHadError
	}
	return g.LoadRecord(node, rec)
}

// LoadFromPath reads and loads the record file at path.
// A missing file yields LoadNeedsNonexistent and leaves the graph untouched.
func (g *Graph[N]) LoadFromPath(node N, path string) domain.LoadResult {
	rec, result, err := ReadRecord(g.parser, path)
	switch result {
	case domain.LoadUpToDate:
		return g.LoadRecord(node, rec)
	case domain.LoadNeedsNonexistent:
		g.nodes[node] = struct{}{}
		delete(g.loadErrors, node)
	default:
		g.nodes[node] = struct{}{}
		g.loadErrors[node] = err
	}
	return result
}

// ReadRecord reads and parses the record file at path without touching any
// graph, so records can be read concurrently and installed with LoadRecord.
// A missing file yields LoadNeedsNonexistent. An unreadable or malformed file
// yields LoadHadError and the cause.
func ReadRecord(parser ports.RecordParser, path string) (*domain.Record, domain.LoadResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Record paths come from the workspace manifest
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.LoadNeedsNonexistent, nil
	}
	if err != nil {
		return nil, domain.LoadHadError, zerr.With(zerr.Wrap(err, domain.ErrRecordReadFailed.Error()), "path", path)
	}

	rec, err := parser.Parse(data)
	if err != nil {
		return nil, domain.LoadHadError, zerr.With(err, "path", path)
	}
	return rec, domain.LoadUpToDate, nil
}

// LoadRecord replaces the facts of node with rec.
func (g *Graph[N]) LoadRecord(node N, rec *domain.Record) domain.LoadResult {
	g.purge(node)
	g.nodes[node] = struct{}{}
	g.insert(node, rec)
	delete(g.loadErrors, node)

	fp := fingerprint(g.provided[node], rec.InterfaceHash)
	old, had := g.fingerprints[node]
	g.fingerprints[node] = fp
	g.changed[node] = !had || old != fp

	if g.verifyOnLoad {
		if err := g.Verify(); err != nil {
			panic(&InvariantError{Err: err})
		}
	}

	return domain.LoadUpToDate
}

// LoadError returns the error of the node's most recent failed load, or nil.
func (g *Graph[N]) LoadError(node N) error {
	return g.loadErrors[node]
}

// Fingerprint returns the interface fingerprint of the node's current record.
func (g *Graph[N]) Fingerprint(node N) (uint64, bool) {
	fp, ok := g.fingerprints[node]
	return fp, ok
}

// InterfaceChanged reports whether the node's last successful load changed what
// it provides. The first load of a node counts as a change. It serves callers
// that keep one graph alive across loads; a graph rebuilt for every plan sees
// every node as changed and compares Fingerprint against stored state instead.
func (g *Graph[N]) InterfaceChanged(node N) bool {
	return g.changed[node]
}

// fingerprint hashes the producer-supplied interface hash when present and the
// sorted provided keys otherwise.
func fingerprint(provided []domain.FactKey, interfaceHash string) uint64 {
	if interfaceHash != "" {
		return xxhash.Sum64String(interfaceHash)
	}

	h := xxhash.New()
	for _, key := range provided {
		_, _ = h.Write([]byte{byte(key.Kind)})
		_, _ = h.WriteString(key.Holder.String())
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(key.Name.String())
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
