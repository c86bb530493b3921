package runtime

import "github.com/plasmagraph/plasmadb/internal/plan"

// buildLimit is stream-side: it forwards the first n PTs, then closes
// its output immediately and drains whatever the upstream still has
// queued up so that operator never blocks on a full channel.
func buildLimit(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	in := ins[0]
	n := argInt(op.Args, "n")

	ec.group.Go(func() error {
		emitted := 0
		for emitted < n {
			pt, ok := <-in
			if !ok {
				break
			}
			if !send(ec.ctx, out, pt) {
				break
			}
			emitted++
		}
		close(out)
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: emitted})
		drain(ec.ctx, in)
		return nil
	})

	return out
}

// buildChoose buffers the full input, then picks the first n buffered
// PTs — the buffering variant of limit: limit is the streaming one,
// choose is the buffering one.
func buildChoose(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	in := ins[0]
	n := argInt(op.Args, "n")

	ec.group.Go(func() error {
		defer close(out)
		var buf []PT
		for pt := range in {
			buf = append(buf, pt)
		}
		if n < len(buf) {
			buf = buf[:n]
		}
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

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
