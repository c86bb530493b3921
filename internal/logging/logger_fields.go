package logging

import (
	"time"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component field helpers for common plasma concepts: which peer, which
// graph node, which operator, how much hop budget is left.

// PeerURL identifies a peer by its plasma://host:port address — the
// peer that issued, received, or is the destination of a sub-query or
// recur-query result delivery.
func PeerURL(url string) Field {
	return String("peer_url", url)
}

// NodeID identifies a graph node by its UUID:-prefixed id.
func NodeID(id graph.NodeID) Field {
	return String("node_id", string(id))
}

// OpID identifies a plan operator by its stable id, for tracing a path
// tuple's progress through the operator DAG.
func OpID(id pathtuple.OpID) Field {
	return String("op_id", string(id))
}

// HTL records the hops-to-live remaining on a sub-query, recur-query,
// or iter-n-query round.
func HTL(n int) Field {
	return Int("htl", n)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
