package runtime

import (
	"context"

	"github.com/plasmagraph/plasmadb/internal/expr"
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildExpression evaluates the operator's boxed expression against
// every inbound PT, binding op.ID to the resulting graph.Value.
func buildExpression(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	tree, err := expr.Decode(op.Args["expr"])

	in := ins[0]
	ec.group.Go(func() error {
		defer close(out)
		if err != nil {
			ec.dropPT(op.ID, err)
			ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Error: err})
			drain(ec.ctx, in)
			return nil
		}

		emitted, dropped := 0, 0
		for pt := range in {
			v, err := expr.Eval(tree, pt)
			if err != nil {
				ec.dropPT(op.ID, err)
				dropped++
				continue
			}
			next := pathtuple.Extend(pt, pathtuple.OpID(op.ID), valueBinding(v))
			if !send(ec.ctx, out, next) {
				break
			}
			emitted++
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted, Dropped: dropped})
		return nil
	})

	return out
}

// valueBinding boxes a scalar expression result as a property binding
// under the reserved "value" key, so select/aggregate operators can
// retrieve it through the ordinary property path.
func valueBinding(v graph.Value) pathtuple.Binding {
	return pathtuple.Binding{Props: map[string]graph.Value{"value": v}}
}

// drain consumes and discards in until it closes, so an upstream
// producer never blocks forever on a downstream operator that bailed
// out early because of a fatal decode error.
func drain(ctx context.Context, in <-chan PT) {
	for {
		select {
		case _, ok := <-in:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
