package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildSelect passes through only the PTs whose select-key value
// binds to true.
func buildSelect(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	key := pathtuple.OpID(argString(op.Args, "select-key"))

	in := ins[0]
	ec.group.Go(func() error {
		defer close(out)
		emitted, dropped := 0, 0
		for pt := range in {
			b, ok := pt.Get(key)
			if !ok || b.Props == nil {
				ec.dropPT(op.ID, perr.New(perr.TypeMismatch, "select: select-key not bound"))
				dropped++
				continue
			}
			v, ok := b.Props["value"]
			if !ok {
				ec.dropPT(op.ID, perr.New(perr.TypeMismatch, "select: select-key value missing"))
				dropped++
				continue
			}
			keep, isBool := v.AsBool()
			if !isBool {
				ec.dropPT(op.ID, perr.New(perr.TypeMismatch, "select: select-key value is not boolean"))
				dropped++
				continue
			}
			if !keep {
				continue
			}
			if !send(ec.ctx, out, pt) {
				break
			}
			emitted++
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted, Dropped: dropped})
		return nil
	})

	return out
}
