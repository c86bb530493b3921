// Package iterquery drives the two recursive/iterated plan shapes:
// iter-n-query loops a plan a fixed number of times, feeding each
// round's results back in as the next round's seed; recur-query
// decides per result PT, via a user predicate, whether to recurse
// locally or treat that PT as final.
package iterquery

import (
	"context"

	"github.com/plasmagraph/plasmadb/internal/expr"
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// rootIDVar is the reserved path-variable every round rebinds to seed
// the next iteration.
const rootIDVar plan.PathVar = "ROOT-ID"

// Runner is the subset of peer.Peer the driver needs: run a plan
// locally and, for recur-query, deliver the final merged result to
// whichever peer should receive it.
type Runner interface {
	QueryChannel(ctx context.Context, p *plan.Plan, params map[plan.PathVar]any) (<-chan pathtuple.PT, error)
	DeliverRecurResult(ctx context.Context, destURL string, rows []pathtuple.PT) error
	SelfURL() string
}

// RunIterN implements the iter-n-query loop.
func RunIterN(ctx context.Context, r Runner, p *plan.Plan) ([]pathtuple.PT, error) {
	iterN, htl := p.IterN, p.HTL
	var params map[plan.PathVar]any
	var rows []pathtuple.PT

	for {
		iterN--
		htl--

		ch, err := r.QueryChannel(ctx, p, params)
		if err != nil {
			return nil, err
		}
		rows = rows[:0]
		for pt := range ch {
			rows = append(rows, pt)
		}

		if iterN <= 0 {
			return rows, nil
		}
		if htl <= 0 {
			return nil, perr.New(perr.HtlExhausted, "iter-n-query: hops-to-live exhausted")
		}
		params = map[plan.PathVar]any{rootIDVar: rootIDs(p, rows)}
	}
}

// RunRecur implements the recur-query driver: the predicate decides,
// per result PT, whether to recurse locally (a fresh round
// seeded at that PT's node, htl decremented) or treat the PT as final.
// Once every branch resolves, the merged set is delivered to src-url
// exactly once — or, when this peer IS src-url (the originating call),
// handed straight back to the caller with no network hop at all.
func RunRecur(ctx context.Context, r Runner, p *plan.Plan) ([]pathtuple.PT, error) {
	pred, err := decodePredicate(p.Pred)
	if err != nil {
		return nil, err
	}

	rows, err := recurRound(ctx, r, p, pred, nil, p.HTL)
	if err != nil {
		return nil, err
	}

	if p.SrcURL != "" && p.SrcURL != r.SelfURL() {
		if err := r.DeliverRecurResult(ctx, p.SrcURL, rows); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return rows, nil
}

func recurRound(ctx context.Context, r Runner, p *plan.Plan, pred expr.Expr, params map[plan.PathVar]any, htl int) ([]pathtuple.PT, error) {
	ch, err := r.QueryChannel(ctx, p, params)
	if err != nil {
		return nil, err
	}

	var final []pathtuple.PT
	for pt := range ch {
		recurse, err := expr.EvalBool(pred, pt)
		if err != nil {
			return nil, err
		}
		if !recurse {
			final = append(final, pt)
			continue
		}
		if htl <= 0 {
			return nil, perr.New(perr.HtlExhausted, "recur-query: hops-to-live exhausted")
		}
		branchParams := map[plan.PathVar]any{rootIDVar: rootIDs(p, []pathtuple.PT{pt})}
		branch, err := recurRound(ctx, r, p, pred, branchParams, htl-1)
		if err != nil {
			return nil, err
		}
		final = append(final, branch...)
	}
	return final, nil
}

func decodePredicate(pred *plan.Predicate) (expr.Expr, error) {
	if pred == nil {
		return nil, perr.New(perr.PlanInvalid, "recur-query: plan has no predicate")
	}
	return expr.Decode(pred.Tree)
}

// rootIDs extracts the node id each row bound at the plan's traversal
// endpoint (plan.Plan.Position, not Root — Root has usually moved on
// to a receive/filter/projection operator that never rebinds it) —
// the value the next round's ROOT-ID parameter reseeds with.
func rootIDs(p *plan.Plan, rows []pathtuple.PT) []graph.NodeID {
	ids := make([]graph.NodeID, 0, len(rows))
	for _, pt := range rows {
		if id, ok := pt.Node(p.Position); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
