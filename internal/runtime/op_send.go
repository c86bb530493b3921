package runtime

import "github.com/plasmagraph/plasmadb/internal/plan"

// buildSend forwards the left operator's output unchanged. The actual
// network hop it names happens one layer up: internal/peer streams an
// operator's output channel onto the wire directly when answering a
// sub-query, so send exists in the plan as the boundary marker a
// remote plan's terminal operator carries, not as work this operator
// itself performs.
func buildSend(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT {
	return ins[0]
}
