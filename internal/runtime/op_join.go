package runtime

import "github.com/plasmagraph/plasmadb/internal/plan"

// buildJoin wires the left operator's output as the right operator's
// sole input, overriding whatever Deps the right operator itself
// declares, and forwards the right operator's output as its own: the
// left op feeds the right op's input, the right op's output feeds the
// join's output. executor.buildOp knows to skip the right operand when
// walking a join's own Deps, so the right operand is built exactly
// once, here, against the join's left input rather than its own.
// This is how a proxy cut's join/traverse pair is rewritten by the
// extractor: swapping what feeds the cut traverse only ever means
// swapping what the join upstream of it treats as its left input.
func buildJoin(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	if len(op.Deps) != 2 {
		out := make(chan PT)
		close(out)
		return out
	}
	rightOp, ok := ec.plan.Get(op.Deps[1])
	if !ok {
		out := make(chan PT)
		close(out)
		return out
	}
	fn, ok := registry[rightOp.Type]
	if !ok {
		out := make(chan PT)
		close(out)
		return out
	}
	return fn(rightOp, ec, []<-chan PT{ins[0]})
}
