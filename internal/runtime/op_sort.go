package runtime

import (
	"sort"

	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/planner"
)

// buildSort buffers every inbound PT, orders it by pt[sort-key].
// sort-prop, and replays it in order — an aggregate with a comparator.
func buildSort(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	in := ins[0]
	order, _ := op.Args["order"].(string)
	descending := order == string(planner.Descending)

	ec.group.Go(func() error {
		defer close(out)
		var buf []PT
		for pt := range in {
			buf = append(buf, pt)
		}

		sort.SliceStable(buf, func(i, j int) bool {
			vi, oki := numericField(op, buf[i])
			vj, okj := numericField(op, buf[j])
			if !oki || !okj {
				return false
			}
			if descending {
				return vi > vj
			}
			return vi < vj
		})

		for _, pt := range buf {
			if !send(ec.ctx, out, pt) {
				break
			}
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: len(buf)})
		return nil
	})

	return out
}
