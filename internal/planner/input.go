// Package planner lowers a path expression, an optional where clause,
// an optional projection, and an optional aggregation tail into a
// plan DAG.
package planner

import (
	"github.com/plasmagraph/plasmadb/internal/expr"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// EdgePredSpec is the wire-safe description of one traverse hop's edge
// predicate: at most one of Label/Pattern is set; an empty spec matches
// every edge.
type EdgePredSpec struct {
	Label   string
	Pattern string
}

// PathSegment is one `[variable, [edge-predicates...]]` entry of a path
// expression.
type PathSegment struct {
	PVar  plan.PathVar
	Preds []EdgePredSpec
}

// PathExpr is the full sequence of path segments.
type PathExpr []PathSegment

// Order is an ORDER BY direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Tail describes the optional trailing aggregation/sort/limit/choose
// stage appended after projection.
type Tail struct {
	Op       plan.OpType // OpSort, OpMin, OpMax, OpAverage, OpCount, OpChoose, OpLimit, or "" for none
	SortKey  plan.PathVar
	SortProp string
	Order    Order
	N        int // Limit count or Choose count
}

// Input is everything the planner needs to build one plan.
type Input struct {
	Path       PathExpr
	Where      expr.Expr // nil if no WHERE clause
	Projection []plan.ProjectItem
	Tail       *Tail
}
