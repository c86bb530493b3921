package runtime

import (
	"context"

	"github.com/plasmagraph/plasmadb/internal/logging"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"golang.org/x/sync/errgroup"
)

// buildFunc instantiates one operator: given its already-built
// upstream channels, it returns the operator's output channel.
type buildFunc func(op *plan.Op, ec *ExecContext, ins []<-chan PT) <-chan PT

// registry maps every plan.OpType this runtime knows how to execute to
// its builder. Aggregate variants (min/max/average/count) share one
// builder parameterized by op.Type.
//
// Populated in init() rather than via the var initializer: buildJoin's
// body looks registry up by key, and including it directly in the map
// literal makes the initializer expression depend on itself, which Go
// treats as an initialization cycle even though the lookup only
// happens once buildJoin actually runs.
var registry map[plan.OpType]buildFunc

func init() {
	registry = map[plan.OpType]buildFunc{
		plan.OpParameter:  buildParameter,
		plan.OpTraverse:   buildTraverse,
		plan.OpJoin:       buildJoin,
		plan.OpProperty:   buildProperty,
		plan.OpSelect:     buildSelect,
		plan.OpExpression: buildExpression,
		plan.OpProject:    buildProject,
		plan.OpAggregate:  buildAggregate,
		plan.OpSort:       buildSort,
		plan.OpMin:        buildAggregate,
		plan.OpMax:        buildAggregate,
		plan.OpAverage:    buildAggregate,
		plan.OpCount:      buildAggregate,
		plan.OpChoose:     buildChoose,
		plan.OpLimit:      buildLimit,
		plan.OpSend:       buildSend,
		plan.OpReceive:    buildReceive,
	}
}

// Run executes p to completion, seeding its parameter operators from
// params, and returns the stream of PTs the plan's root operator
// produces. The returned channel closes once every operator has
// drained — a query completes when every operator's output channel
// has closed.
func Run(ctx context.Context, p *plan.Plan, params map[plan.PathVar]any, deps Deps) (<-chan PT, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	group, gctx := errgroup.WithContext(ctx)
	ec := newExecContext(gctx, group, p, deps)
	ec.params = params

	built := map[plan.OpID]<-chan PT{}
	out, err := ec.buildOp(p.Root, built)
	if err != nil {
		return nil, err
	}

	go func() {
		ec.traverseWG.Wait()
		close(ec.remotes)
	}()
	go func() {
		if err := group.Wait(); err != nil {
			ec.logger.Error("query execution stopped early", logging.PeerURL(ec.selfURL), logging.HTL(p.HTL), logging.Error(err))
		}
	}()

	return out, nil
}

func (ec *ExecContext) buildOp(id plan.OpID, built map[plan.OpID]<-chan PT) (<-chan PT, error) {
	if ch, ok := built[id]; ok {
		return ch, nil
	}
	op, ok := ec.plan.Get(id)
	if !ok {
		return nil, perr.New(perr.PlanInvalid, "runtime: op not found: "+string(id))
	}
	deps := op.Deps
	if op.Type == plan.OpJoin && len(deps) == 2 {
		// A join's right operand is built by buildJoin itself, fed the
		// join's left input instead of whatever Deps it declares on
		// its own — walking it here too would build it a second time
		// against its own (likely empty or unrelated) Deps and split
		// its true upstream's PTs between two independent consumers.
		deps = deps[:1]
	}
	for _, dep := range deps {
		if _, err := ec.buildOp(dep, built); err != nil {
			return nil, err
		}
	}
	fn, ok := registry[op.Type]
	if !ok {
		return nil, perr.New(perr.PlanInvalid, "runtime: no builder for op type "+string(op.Type))
	}
	ins := make([]<-chan PT, len(op.Deps))
	for i, d := range deps {
		ins[i] = built[d]
	}
	out := fn(op, ec, ins)
	built[id] = out
	return out, nil
}
