package runtime

import (
	"context"

	"github.com/plasmagraph/plasmadb/internal/graph"
)

// send delivers pt on out, honoring ctx cancellation so a downstream
// failure unwinds every upstream goroutine instead of leaking them.
func send(ctx context.Context, out chan<- PT, pt PT) bool {
	select {
	case out <- pt:
		return true
	case <-ctx.Done():
		return false
	}
}

// seedNodeIDs normalizes the several shapes a parameter operator's
// seed value may arrive in — a single id, a slice, or a graph.Value
// list — into the one-PT-per-element form the operator emits.
func seedNodeIDs(seed any) []graph.NodeID {
	switch v := seed.(type) {
	case nil:
		return nil
	case graph.NodeID:
		return []graph.NodeID{v}
	case []graph.NodeID:
		return v
	case string:
		return []graph.NodeID{graph.NodeID(v)}
	case graph.Value:
		if v.Kind == graph.KindList {
			ids := make([]graph.NodeID, 0, len(v.List))
			for _, elem := range v.List {
				s, _ := elem.AsString()
				ids = append(ids, graph.NodeID(s))
			}
			return ids
		}
		s, _ := v.AsString()
		return []graph.NodeID{graph.NodeID(s)}
	default:
		return nil
	}
}
