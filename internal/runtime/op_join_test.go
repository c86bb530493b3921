package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/graphstore"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/stretchr/testify/require"
)

// TestBuildJoin_FeedsRightOperandTheLeftsOutput exercises the plan.OpJoin
// builder directly: a join whose right operand is a property op should
// run that property op against the join's own left input rather than
// whatever Deps the property op itself declares (none, here).
func TestBuildJoin_FeedsRightOperandTheLeftsOutput(t *testing.T) {
	store := graphstore.New()
	bass := mustID(t, "bass")
	store.PutNode(&graph.Node{ID: bass, Properties: map[string]graph.Value{
		"label": graph.String("bass"),
	}})

	p := plan.New()
	paramID := plan.OpID("seed")
	p.AddOp(&plan.Op{ID: paramID, Type: plan.OpParameter, Args: map[string]any{"name": "ROOT-ID"}})

	propID := plan.OpID("load-label")
	p.AddOp(&plan.Op{ID: propID, Type: plan.OpProperty, Args: map[string]any{
		"pt-key": string(paramID),
		"props":  []string{"label"},
	}})

	joinID := plan.OpID("join")
	p.AddOp(&plan.Op{ID: joinID, Type: plan.OpJoin, Deps: []plan.OpID{paramID, propID}})
	p.Root = joinID

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := Run(ctx, p, map[plan.PathVar]any{"ROOT-ID": bass}, Deps{Graph: store})
	require.NoError(t, err)

	rows := collect(t, out, time.Second)
	require.Len(t, rows, 1)

	b, ok := rows[0].Get(paramID)
	require.True(t, ok)
	v, ok := b.Props["label"]
	require.True(t, ok, "join must have run the property op against its left input")
	s, _ := v.AsString()
	require.Equal(t, "bass", s)
}

// TestBuildJoin_MalformedArity closes over the defensive branch: a join
// op that isn't binary produces a closed, empty channel instead of
// panicking on an out-of-range Deps index.
func TestBuildJoin_MalformedArity(t *testing.T) {
	p := plan.New()
	joinID := plan.OpID("join")
	p.AddOp(&plan.Op{ID: joinID, Type: plan.OpJoin, Deps: nil})
	p.Root = joinID

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := Run(ctx, p, nil, Deps{Graph: graphstore.New()})
	require.NoError(t, err)

	rows := collect(t, out, time.Second)
	require.Empty(t, rows)
}
