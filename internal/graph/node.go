// Package graph defines the minimal read surface the query engine uses
// over a peer's local property graph. It never writes — writes are
// delegated to the (out of scope) single-node store.
package graph

import (
	"fmt"
	"strings"
)

// idPrefix is the fixed prefix every node identifier carries.
const idPrefix = "UUID:"

// NodeID is an opaque, UUID-prefixed node identifier.
type NodeID string

// RootID and MetaID are the two reserved per-graph identifiers.
const (
	RootID NodeID = idPrefix + "ROOT"
	MetaID NodeID = idPrefix + "META"
)

// NewNodeID validates and wraps a canonical UUID string.
func NewNodeID(uuid string) (NodeID, error) {
	id := NodeID(idPrefix + uuid)
	if !id.Valid() {
		return "", fmt.Errorf("graph: invalid node id %q", uuid)
	}
	return id, nil
}

// Valid reports whether id carries the required prefix and a non-empty body.
func (id NodeID) Valid() bool {
	s := string(id)
	return strings.HasPrefix(s, idPrefix) && len(s) > len(idPrefix)
}

// Short returns the four-character log form (e.g. "a1b2"), never the
// full id — for logs only.
func (id NodeID) Short() string {
	s := string(id)
	body := strings.TrimPrefix(s, idPrefix)
	if len(body) < 4 {
		return body
	}
	return body[:4]
}

func (id NodeID) String() string { return string(id) }

// Node is a mapping from property name to property value, plus the
// mandatory id and the edges that hang off it.
type Node struct {
	ID         NodeID
	Properties map[string]Value
	Edges      map[NodeID]EdgeProps
}

// EdgeProps is the property mapping carried on one outgoing edge. It must
// contain "label" per the data model.
type EdgeProps map[string]Value

// Label returns the edge's required label property.
func (e EdgeProps) Label() string {
	if v, ok := e["label"]; ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return ""
}

// Proxy returns the node's proxy URL and whether it is set. A node with
// a "proxy" property is a placeholder pointing at a node on another peer.
func (n *Node) Proxy() (string, bool) {
	v, ok := n.Properties["proxy"]
	if !ok {
		return "", false
	}
	s, ok := v.AsString()
	return s, ok
}

// IsProxy reports whether n is a proxy node.
func (n *Node) IsProxy() bool {
	_, ok := n.Proxy()
	return ok
}

// GetProperty looks up a single property by name.
func (n *Node) GetProperty(name string) (Value, bool) {
	v, ok := n.Properties[name]
	return v, ok
}

// Clone returns a deep copy, for values handed across
// goroutine/channel boundaries.
func (n *Node) Clone() *Node {
	c := &Node{
		ID:         n.ID,
		Properties: make(map[string]Value, len(n.Properties)),
		Edges:      make(map[NodeID]EdgeProps, len(n.Edges)),
	}
	for k, v := range n.Properties {
		c.Properties[k] = v
	}
	for target, props := range n.Edges {
		ep := make(EdgeProps, len(props))
		for k, v := range props {
			ep[k] = v
		}
		c.Edges[target] = ep
	}
	return c
}
