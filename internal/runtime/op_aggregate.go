package runtime

import (
	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// buildAggregate buffers every inbound PT until its input closes, then
// emits the fold result and closes — the shared basis for min, max,
// average, and count. A plain "aggregate" op with no named fold
// reissues its buffer in original order (identity fold).
func buildAggregate(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	out := make(chan PT, ec.bufSize)
	in := ins[0]

	ec.group.Go(func() error {
		defer close(out)
		var buf []PT
		for pt := range in {
			buf = append(buf, pt)
		}

		switch op.Type {
		case plan.OpCount:
			send(ec.ctx, out, countOf(op, buf))
		case plan.OpMin:
			if r, ok := extremum(op, buf, true); ok {
				send(ec.ctx, out, r)
			}
		case plan.OpMax:
			if r, ok := extremum(op, buf, false); ok {
				send(ec.ctx, out, r)
			}
		case plan.OpAverage:
			if r, ok := averageOf(op, buf); ok {
				send(ec.ctx, out, r)
			}
		default: // plan.OpAggregate: identity fold
			for _, pt := range buf {
				if !send(ec.ctx, out, pt) {
					break
				}
			}
		}
		ec.events.OnOperatorDone(OpCompletedEvent{OpID: op.ID, OpType: op.Type, Emitted: len(buf)})
		return nil
	})

	return out
}

// upstreamResult reads the Result the operator directly feeding op
// produced — sound because the planner only ever appends an
// aggregate-family op to the end of a linear spine, so op.Deps[0] is
// always the op that boxed the Result.
func upstreamResult(op *plan.Op, pt PT) (Result, bool) {
	if len(op.Deps) == 0 {
		return Result{}, false
	}
	return resultOf(pt, op.Deps[0])
}

func aggregateKey(op *plan.Op) (plan.PathVar, string) {
	key, _ := op.Args["sort-key"].(string)
	prop, _ := op.Args["sort-prop"].(string)
	return plan.PathVar(key), prop
}

func numericField(op *plan.Op, pt PT) (float64, bool) {
	r, ok := upstreamResult(op, pt)
	if !ok {
		return 0, false
	}
	pvar, prop := aggregateKey(op)
	rv, ok := r.Values[pvar]
	if !ok {
		return 0, false
	}
	v, ok := rv.Props[prop]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func countOf(op *plan.Op, buf []PT) PT {
	r := Result{Values: map[plan.PathVar]ResultValue{
		"count": {Props: map[string]graph.Value{"value": graph.Int(int64(len(buf)))}},
	}}
	return pathtuple.Extend(pathtuple.Empty(), pathtuple.OpID(op.ID), pathtuple.Binding{Props: resultBinding(r)})
}

func extremum(op *plan.Op, buf []PT, wantMin bool) (PT, bool) {
	var best PT
	var bestVal float64
	found := false
	for _, pt := range buf {
		v, ok := numericField(op, pt)
		if !ok {
			continue
		}
		if !found || (wantMin && v < bestVal) || (!wantMin && v > bestVal) {
			best, bestVal, found = pt, v, true
		}
	}
	if !found {
		return PT{}, false
	}
	return best, true
}

func averageOf(op *plan.Op, buf []PT) (PT, bool) {
	var sum float64
	n := 0
	for _, pt := range buf {
		v, ok := numericField(op, pt)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return PT{}, false
	}
	r := Result{Values: map[plan.PathVar]ResultValue{
		"average": {Props: map[string]graph.Value{"value": graph.Float(sum / float64(n))}},
	}}
	return pathtuple.Extend(pathtuple.Empty(), pathtuple.OpID(op.ID), pathtuple.Binding{Props: resultBinding(r)}), true
}
