package expr

import (
	"fmt"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
)

func pvarOpFrom(s string) pathtuple.OpID { return pathtuple.OpID(s) }

// Encode turns an Expr tree into a plain JSON-able value, suitable for
// an Op.Args entry or a Plan.Predicate.Tree — plan args are strings,
// numbers, expression trees, and predicate maps; no Go interfaces
// survive the wire.
func Encode(e Expr) any {
	switch n := e.(type) {
	case Literal:
		return map[string]any{"kind": "literal", "value": n.Value.Any()}
	case *PVarProperty:
		return map[string]any{"kind": "pvar", "pvar": n.PVar, "property": n.Property, "pvar_op": string(n.PVarOp)}
	case *Call:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = Encode(a)
		}
		return map[string]any{"kind": "call", "op": n.Op, "args": args}
	default:
		return nil
	}
}

// Decode reverses Encode.
func Decode(v any) (Expr, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expr: decode: not an object: %#v", v)
	}
	kind, _ := m["kind"].(string)
	switch kind {
	case "literal":
		return Literal{Value: graph.FromAny(m["value"])}, nil
	case "pvar":
		pvar, _ := m["pvar"].(string)
		prop, _ := m["property"].(string)
		opID, _ := m["pvar_op"].(string)
		return &PVarProperty{PVar: pvar, Property: prop, PVarOp: pvarOpFrom(opID)}, nil
	case "call":
		op, _ := m["op"].(string)
		rawArgs, _ := m["args"].([]any)
		args := make([]Expr, len(rawArgs))
		for i, ra := range rawArgs {
			e, err := Decode(ra)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return &Call{Op: op, Args: args}, nil
	default:
		return nil, fmt.Errorf("expr: decode: unknown kind %q", kind)
	}
}
