package expr

import (
	"testing"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/stretchr/testify/require"
)

func ptWithScore(score float64) pathtuple.PT {
	pt := pathtuple.Empty()
	pt = pathtuple.Extend(pt, "synth-node", pathtuple.NodeBinding(graph.RootID))
	pt = pathtuple.Extend(pt, "synth-prop", pathtuple.PropBinding(graph.RootID, map[string]graph.Value{
		"score": graph.Float(score),
	}))
	return pt
}

func TestEvalComparisonGreaterEqual(t *testing.T) {
	e := &Call{Op: ">=", Args: []Expr{
		&PVarProperty{PVar: "b", Property: "score", PVarOp: "synth-prop"},
		Literal{Value: graph.Float(0.6)},
	}}

	ok, err := EvalBool(e, ptWithScore(0.8))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = EvalBool(e, ptWithScore(0.4))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvalArithmeticIntStaysInt(t *testing.T) {
	e := &Call{Op: "+", Args: []Expr{
		Literal{Value: graph.Int(2)},
		Literal{Value: graph.Int(3)},
	}}
	v, err := Eval(e, pathtuple.Empty())
	require.NoError(t, err)
	require.Equal(t, graph.KindInt, v.Kind)
	require.Equal(t, int64(5), v.Int)
}

func TestEvalUnknownOperatorIsTypeMismatch(t *testing.T) {
	e := &Call{Op: "frobnicate", Args: []Expr{Literal{Value: graph.Int(1)}}}
	_, err := Eval(e, pathtuple.Empty())
	require.Error(t, err)
	require.True(t, perr.Is(err, perr.TypeMismatch))
}

func TestEvalMissingPropertyIsTypeMismatch(t *testing.T) {
	e := &PVarProperty{PVar: "b", Property: "score", PVarOp: "nowhere"}
	_, err := Eval(e, pathtuple.Empty())
	require.Error(t, err)
	require.True(t, perr.Is(err, perr.TypeMismatch))
}

func TestEvalLogicalShortCircuit(t *testing.T) {
	// `or` with a true left side must never evaluate the right side.
	e := &Call{Op: "or", Args: []Expr{
		Literal{Value: graph.Bool(true)},
		&PVarProperty{PVar: "x", Property: "y", PVarOp: "missing"},
	}}
	ok, err := EvalBool(e, pathtuple.Empty())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDivisionByZero(t *testing.T) {
	e := &Call{Op: "/", Args: []Expr{
		Literal{Value: graph.Int(1)},
		Literal{Value: graph.Int(0)},
	}}
	_, err := Eval(e, pathtuple.Empty())
	require.Error(t, err)
	require.True(t, perr.Is(err, perr.TypeMismatch))
}
