// Package expr implements a symbolic expression sub-language: a
// quoted form like (>= (score b) 0.6), evaluated by a dedicated
// interpreter over a fixed operator table — never by a host-language
// eval.
package expr

import (
	"fmt"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
)

// Expr is a node in the symbolic expression tree.
type Expr interface {
	// expr is unexported so the tree is closed to outside packages —
	// the planner lowers every node it sees, so new shapes would need
	// a matching lowering rule anyway.
	expr()
}

// Literal is a constant value.
type Literal struct {
	Value graph.Value
}

func (Literal) expr() {}

// PVarProperty references a property of a bound path variable, e.g.
// (score b). The planner lowers this into a property operator that
// pre-loads Property into the PT at PVarOp's slot.
type PVarProperty struct {
	PVar     string // the path-variable symbol, e.g. "b"
	Property string // the property name, e.g. "score"

	// PVarOp is filled in by the planner: the operator id whose output
	// slot holds PVar's bound node.
	PVarOp pathtuple.OpID
}

func (*PVarProperty) expr() {}

// Call is any unary/binary/ternary operator application over the fixed
// op table.
type Call struct {
	Op   string
	Args []Expr
}

func (*Call) expr() {}

// Walk calls visit on e and, recursively, on every Call argument and
// PVarProperty leaf. Used by the planner to discover the property
// loads and operator chain an expression requires.
func Walk(e Expr, visit func(Expr)) {
	visit(e)
	if c, ok := e.(*Call); ok {
		for _, a := range c.Args {
			Walk(a, visit)
		}
	}
}

// CollectPVarProperties returns every PVarProperty leaf reachable from e,
// in left-to-right traversal order.
func CollectPVarProperties(e Expr) []*PVarProperty {
	var out []*PVarProperty
	Walk(e, func(n Expr) {
		if p, ok := n.(*PVarProperty); ok {
			out = append(out, p)
		}
	})
	return out
}

func (e *PVarProperty) String() string {
	return fmt.Sprintf("(%s %s)", e.Property, e.PVar)
}
