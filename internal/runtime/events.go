package runtime

import "github.com/plasmagraph/plasmadb/internal/plan"

// OpCompletedEvent reports that one operator's output channel has
// closed: every PT it will ever emit has already been sent.
type OpCompletedEvent struct {
	OpID    plan.OpID
	OpType  plan.OpType
	Emitted int
	Dropped int
	Proxies int // traverse only: proxy crossings opened
	Error   error
}
