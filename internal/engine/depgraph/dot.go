package depgraph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/zerr"
)

// Vertex IDs are namespaced so a node can never collide with an external path.
const (
	nodeVertexPrefix     = "node:"
	externalVertexPrefix = "external:"
)

// WriteDOT renders the node-level graph in DOT. Every edge runs from a provider
// to a dependent and is labelled with the keys they share; non-cascading edges
// are dashed and marked nodes are filled.
func (g *Graph[N]) WriteDOT(w io.Writer) error {
	dg := graph.New(graph.StringHash, graph.Directed())

	for _, node := range g.Nodes() {
		name := fmt.Sprint(node)
		attrs := []func(*graph.VertexProperties){
			graph.VertexAttribute("label", name),
			graph.VertexAttribute("shape", "ellipse"),
		}
		if g.IsMarked(node) {
			attrs = append(attrs,
				graph.VertexAttribute("style", "filled"),
				graph.VertexAttribute("fillcolor", "lightsalmon"),
			)
		}
		if err := dg.AddVertex(nodeVertexPrefix+name, attrs...); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to add DOT vertex"), "node", name)
		}
	}

	for _, path := range g.ExternalDependencies() {
		err := dg.AddVertex(externalVertexPrefix+path,
			graph.VertexAttribute("label", path),
			graph.VertexAttribute("shape", "note"),
		)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to add DOT vertex"), "path", path)
		}
	}

	for _, node := range g.Nodes() {
		from := nodeVertexPrefix + fmt.Sprint(node)
		for _, e := range g.dependentsOf(node) {
			to := nodeVertexPrefix + fmt.Sprint(e.to)
			if to == from {
				continue
			}
			labels := make([]string, len(e.via))
			for i, key := range e.via {
				labels[i] = key.String()
			}
			attrs := []func(*graph.EdgeProperties){graph.EdgeAttribute("label", strings.Join(labels, `\n`))}
			if !e.cascades {
				attrs = append(attrs, graph.EdgeAttribute("style", "dashed"))
			}
			if err := dg.AddEdge(from, to, attrs...); err != nil {
				return zerr.With(zerr.With(zerr.Wrap(err, "failed to add DOT edge"), "from", from), "to", to)
			}
		}
		for _, path := range g.usedExternal[node] {
			if err := dg.AddEdge(externalVertexPrefix+path, from, graph.EdgeAttribute("style", "dotted")); err != nil {
				return zerr.With(zerr.With(zerr.Wrap(err, "failed to add DOT edge"), "from", path), "to", from)
			}
		}
	}

	return draw.DOT(dg, w, draw.GraphAttribute("rankdir", "LR"))
}

// EmitDOTFile writes the graph to a new sequence-numbered file in dir and
// returns its path. Successive calls never overwrite each other's files.
func (g *Graph[N]) EmitDOTFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create DOT directory"), "dir", dir)
	}

	for {
		path := filepath.Join(dir, fmt.Sprintf("depgraph-%04d.dot", g.dotSequence))
		g.dotSequence++

		//nolint:gosec // Path is built from the state directory and a counter
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, domain.FilePerm)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to create DOT file"), "path", path)
		}

		writeErr := g.WriteDOT(f)
		closeErr := f.Close()
		if writeErr != nil {
			return "", writeErr
		}
		if closeErr != nil {
			return "", zerr.With(zerr.Wrap(closeErr, "failed to close DOT file"), "path", path)
		}
		return path, nil
	}
}
