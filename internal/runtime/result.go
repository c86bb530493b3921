package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// Result is the shape a project operator, and everything downstream of
// it, produces: one row per surviving path, keyed by path-variable
// name.
type Result struct {
	Values map[plan.PathVar]ResultValue
}

// ResultValue is a projected path variable: its node id and whatever
// properties were requested for it.
type ResultValue struct {
	Node  graph.NodeID
	Props map[string]graph.Value
}

// encodeResult boxes a Result as a graph.Value so it can travel inside
// an ordinary property binding — sort/aggregate/limit/choose all read
// it back out through resultOf, keeping every operator in the same
// PT-in-PT-out shape.
func encodeResult(r Result) graph.Value {
	m := make(map[string]graph.Value, len(r.Values))
	for pvar, rv := range r.Values {
		props := make(map[string]graph.Value, len(rv.Props))
		for k, v := range rv.Props {
			props[k] = v
		}
		m[string(pvar)] = graph.Map(map[string]graph.Value{
			"node":  graph.String(string(rv.Node)),
			"props": graph.Map(props),
		})
	}
	return graph.Map(m)
}

func decodeResult(v graph.Value) Result {
	values := make(map[plan.PathVar]ResultValue, len(v.Map))
	for pvar, entry := range v.Map {
		node, _ := entry.Map["node"].AsString()
		props := entry.Map["props"].Map
		values[plan.PathVar(pvar)] = ResultValue{Node: graph.NodeID(node), Props: props}
	}
	return Result{Values: values}
}

// resultBinding returns the property binding a project/aggregate/sort
// operator emits for the Result it produced.
func resultBinding(r Result) map[string]graph.Value {
	return map[string]graph.Value{"result": encodeResult(r)}
}

// resultOf reads the Result carried by the binding at key, if any.
func resultOf(pt PT, key OpID) (Result, bool) {
	b, ok := pt.Get(key)
	if !ok || b.Props == nil {
		return Result{}, false
	}
	v, ok := b.Props["result"]
	if !ok {
		return Result{}, false
	}
	return decodeResult(v), true
}
