package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildProject turns each surviving PT into a Result row and carries it
// onward as a property binding keyed by op.ID, so downstream
// aggregate/sort/limit/choose operators can read it back with resultOf
// while staying in the same PT-in-PT-out shape as every other operator.
func buildProject(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	items, _ := op.Args["items"].([]plan.ProjectItem)

	in := ins[0]
	ec.group.Go(func() error {
		defer close(out)
		emitted, dropped := 0, 0
		for pt := range in {
			values := make(map[plan.PathVar]ResultValue, len(items))
			ok := true
			for _, item := range items {
				pvarOp, bound := ec.plan.PBind[item.PVar]
				if !bound {
					ok = false
					break
				}
				b, has := pt.Get(pvarOp)
				if !has {
					ok = false
					break
				}
				values[item.PVar] = ResultValue{Node: b.Node, Props: b.Props}
			}
			if !ok {
				dropped++
				continue
			}
			next := pathtuple.Extend(pt, pathtuple.OpID(op.ID), pathtuple.Binding{Props: resultBinding(Result{Values: values})})
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
