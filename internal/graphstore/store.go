// Package graphstore is the in-memory reference implementation of
// internal/graph.Adapter — the single-node store itself is out of
// scope for this engine, kept here only so the query engine has
// something real to run against end to end.
package graphstore

import (
	"sort"
	"sync"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/tidwall/btree"
)

// labelEntry is one row of the label index: which target a given
// (source, label) pair reaches. The index keeps each pair's targets
// sorted and Edges walks them in that order, but the map Edges returns
// has no defined iteration order of its own.
type labelEntry struct {
	Source graph.NodeID
	Label  string
	Target graph.NodeID
}

func lessLabelEntry(a, b labelEntry) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Label != b.Label {
		return a.Label < b.Label
	}
	return a.Target < b.Target
}

// Store is a sync.RWMutex-guarded in-memory graph, grounded on the
// teacher's PropertyIndex idiom (pkg/storage/index.go) but ordered
// with a tidwall/btree.BTreeG instead of an unordered map[string][]id,
// so the label index itself is walked in (source, label, target) order.
type Store struct {
	mu     sync.RWMutex
	nodes  map[graph.NodeID]*graph.Node
	labels *btree.BTreeG[labelEntry]
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nodes:  make(map[graph.NodeID]*graph.Node),
		labels: btree.NewBTreeG(lessLabelEntry),
	}
}

// PutNode inserts or replaces a node, indexing every one of its edges.
func (s *Store) PutNode(n *graph.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.nodes[n.ID]; ok {
		for target, props := range old.Edges {
			s.labels.Delete(labelEntry{Source: n.ID, Label: props.Label(), Target: target})
		}
	}
	s.nodes[n.ID] = n
	for target, props := range n.Edges {
		s.labels.Set(labelEntry{Source: n.ID, Label: props.Label(), Target: target})
	}
}

func (s *Store) FindNode(id graph.NodeID) (*graph.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return n, true
}

func (s *Store) IsProxy(id graph.NodeID) bool {
	n, ok := s.FindNode(id)
	return ok && n.IsProxy()
}

func (s *Store) Edges(id graph.NodeID, pred graph.EdgePredicate) (map[graph.NodeID]graph.EdgeProps, error) {
	n, ok := s.FindNode(id)
	if !ok {
		return nil, nil
	}

	out := make(map[graph.NodeID]graph.EdgeProps)
	targets := s.orderedTargets(id)
	for _, target := range targets {
		props := n.Edges[target]
		if pred.Matches(props) {
			out[target] = props
		}
	}
	return out, nil
}

func (s *Store) orderedTargets(id graph.NodeID) []graph.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []graph.NodeID
	s.labels.Ascend(labelEntry{Source: id}, func(item labelEntry) bool {
		if item.Source != id {
			return false
		}
		targets = append(targets, item.Target)
		return true
	})
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

func (s *Store) Close() error { return nil }

var _ graph.Adapter = (*Store)(nil)
