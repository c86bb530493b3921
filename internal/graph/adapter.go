package graph

import "regexp"

// EdgePredicate selects which outgoing edges of a node to follow.
// Exactly one field should be set; a zero-value EdgePredicate matches
// every edge.
type EdgePredicate struct {
	Label   string         // exact label match
	Pattern *regexp.Regexp // label regex match
	Match   func(EdgeProps) bool // predicate over the full edge mapping
}

// Matches reports whether the predicate selects the given edge.
func (p EdgePredicate) Matches(e EdgeProps) bool {
	switch {
	case p.Match != nil:
		return p.Match(e)
	case p.Pattern != nil:
		return p.Pattern.MatchString(e.Label())
	case p.Label != "":
		return e.Label() == p.Label
	default:
		return true
	}
}

// Adapter is the read-only surface the query engine uses over a peer's
// local graph. Writes are delegated to the store; the engine never
// mutates the graph through this interface.
type Adapter interface {
	// FindNode returns the node for id, or (nil, false) if absent.
	FindNode(id NodeID) (*Node, bool)
	// Edges returns the matching outgoing edges from id, keyed by
	// target node id.
	Edges(id NodeID, pred EdgePredicate) (map[NodeID]EdgeProps, error)
	// IsProxy reports whether id names a proxy node.
	IsProxy(id NodeID) bool
	// Close releases any resources the adapter holds.
	Close() error
}
