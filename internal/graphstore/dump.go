package graphstore

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/exp/mmap"

	"github.com/plasmagraph/plasmadb/internal/graph"
)

// dumpNode is the on-disk JSON shape one node takes in a graph dump
// file: a flat property map plus a list of outgoing edges, each an
// arbitrary property map that must carry a "label" key.
type dumpNode struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Edges      []dumpEdge     `json:"edges"`
}

type dumpEdge struct {
	Target     string         `json:"target"`
	Properties map[string]any `json:"properties"`
}

// LoadDump reads a graph dump file and returns a populated Store.
// The file is memory-mapped rather than read into a byte slice, then
// decoded as one JSON array, so every node record of the dump is held
// in memory at once before the store is filled.
func LoadDump(path string) (*Store, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graphstore: open dump: %w", err)
	}
	defer r.Close()

	store := New()
	dec := json.NewDecoder(io.NewSectionReader(r, 0, int64(r.Len())))
	var nodes []dumpNode
	if err := dec.Decode(&nodes); err != nil {
		return nil, fmt.Errorf("graphstore: decode dump: %w", err)
	}

	for _, dn := range nodes {
		n := &graph.Node{
			ID:         graph.NodeID(dn.ID),
			Properties: make(map[string]graph.Value, len(dn.Properties)),
			Edges:      make(map[graph.NodeID]graph.EdgeProps, len(dn.Edges)),
		}
		for k, v := range dn.Properties {
			n.Properties[k] = graph.FromAny(v)
		}
		for _, de := range dn.Edges {
			props := make(graph.EdgeProps, len(de.Properties))
			for k, v := range de.Properties {
				props[k] = graph.FromAny(v)
			}
			n.Edges[graph.NodeID(de.Target)] = props
		}
		store.PutNode(n)
	}
	return store, nil
}
