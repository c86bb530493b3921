package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildParameter emits one PT per element of the seed value bound to
// the operator's name argument, each binding op.ID to that node. A
// seed value baked directly into
// the op's own args (set by internal/subplan when it cuts a
// sub-query) takes precedence over the caller-supplied params map, so
// a sub-plan shipped to a remote peer carries its own seed and needs
// no side-channel alongside the plan on the wire.
func buildParameter(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	name, _ := op.Args["name"].(string)

	seed := op.Args["seed"]
	if seed == nil {
		seed = ec.params[plan.PathVar(name)]
	} else {
		// A baked seed is consumed once: internal/subplan bakes it for
		// a sub-plan that only ever runs a single round, but
		// internal/iterquery reuses this same *Plan across rounds,
		// reseeding via ec.params each time. Clearing it here lets
		// round two's params take over instead of the op permanently
		// re-emitting round one's seed forever.
		delete(op.Args, "seed")
	}

	ec.group.Go(func() error {
		defer close(out)
		emitted := 0
		for _, id := range seedNodeIDs(seed) {
			pt := pathtuple.Extend(pathtuple.Empty(), op.ID, pathtuple.NodeBinding(id))
			if !send(ec.ctx, out, pt) {
				break
			}
			emitted++
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted})
		return nil
	})

	return out
}
