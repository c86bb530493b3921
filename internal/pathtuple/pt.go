// Package pathtuple implements the immutable path-tuple (PT) that flows
// between operators in the runtime. A PT is a map keyed by stable
// operator identifiers; it is never modified once emitted onto a
// channel, only extended into a new PT.
package pathtuple

import (
	"encoding/json"

	"github.com/plasmagraph/plasmadb/internal/graph"
)

// OpID is a stable operator identifier, matching plan.OpID without
// importing the plan package (pathtuple sits below plan in the
// dependency graph).
type OpID string

// Binding is the value an operator contributes to a PT: either the
// graph node id it produced, or — for property/projection operators —
// a nested set of loaded properties for that node.
type Binding struct {
	Node  graph.NodeID           `json:"node"`
	Props map[string]graph.Value `json:"props,omitempty"` // non-nil only for property bindings
}

// NodeBinding wraps a plain node id.
func NodeBinding(id graph.NodeID) Binding { return Binding{Node: id} }

// PropBinding wraps a loaded property set for a node.
func PropBinding(id graph.NodeID, props map[string]graph.Value) Binding {
	return Binding{Node: id, Props: props}
}

// PT is an immutable path tuple: operator id -> binding. The exported
// type has no mutating method — Extend and Merge are the only
// constructors, and both return a new PT that shares unmodified
// sub-structure with their input (copy-on-write over a flat map).
type PT struct {
	bindings map[OpID]Binding
}

// Empty returns the zero path tuple.
func Empty() PT {
	return PT{bindings: nil}
}

// Get returns the binding at key and whether it is present.
func (pt PT) Get(key OpID) (Binding, bool) {
	if pt.bindings == nil {
		return Binding{}, false
	}
	b, ok := pt.bindings[key]
	return b, ok
}

// Node is a convenience accessor returning the node id bound at key.
func (pt PT) Node(key OpID) (graph.NodeID, bool) {
	b, ok := pt.Get(key)
	if !ok {
		return "", false
	}
	return b.Node, true
}

// Keys returns the set of bound operator ids, for diagnostics and
// projection.
func (pt PT) Keys() []OpID {
	keys := make([]OpID, 0, len(pt.bindings))
	for k := range pt.bindings {
		keys = append(keys, k)
	}
	return keys
}

// Extend returns a new PT equal to pt plus the binding at key.
func Extend(pt PT, key OpID, b Binding) PT {
	out := make(map[OpID]Binding, len(pt.bindings)+1)
	for k, v := range pt.bindings {
		out[k] = v
	}
	out[key] = b
	return PT{bindings: out}
}

// Merge returns a new PT containing every binding of a and b; where
// both define the same key, b's binding wins.
func Merge(a, b PT) PT {
	out := make(map[OpID]Binding, len(a.bindings)+len(b.bindings))
	for k, v := range a.bindings {
		out[k] = v
	}
	for k, v := range b.bindings {
		out[k] = v
	}
	return PT{bindings: out}
}

// MarshalJSON exports the bindings map directly — a PT crosses the
// wire as one JSON object keyed by operator id.
func (pt PT) MarshalJSON() ([]byte, error) {
	return json.Marshal(pt.bindings)
}

// UnmarshalJSON rehydrates a PT received from a remote peer.
func (pt *PT) UnmarshalJSON(data []byte) error {
	var m map[OpID]Binding
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	pt.bindings = m
	return nil
}
