// Package runtime implements the plan's streaming operators as a
// network of goroutines communicating over channels, one pair of
// channels per operator, wired by the plan's Deps edges.
package runtime

import (
	"context"
	"sync"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/logging"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"golang.org/x/sync/errgroup"
)

// DefaultBufferSize is large enough that a slow consumer doesn't
// immediately stall a fast producer, small enough that back-pressure
// still reaches upstream.
const DefaultBufferSize = 64

// PT is the channel element type flowing between operators.
type PT = pathtuple.PT

// OpID is a stable operator identifier, re-exported for callers that
// only need to key into a PT.
type OpID = pathtuple.OpID

// RemoteStream is a stream of path tuples contributed by a remote peer
// through a proxy crossing.
type RemoteStream = <-chan PT

// RemoteOpener abstracts the peer facade's sub-query RPC, so the
// runtime depends on an interface rather than importing the peer
// package — internal/peer imports internal/runtime to execute plans,
// so the dependency has to run this direction: the connection manager
// is plumbed explicitly through the runtime context rather than kept
// as a process-wide singleton.
type RemoteOpener interface {
	OpenSubQuery(ctx context.Context, peerURL string, p *plan.Plan) (RemoteStream, error)
}

// Events receives callbacks about operator execution progress, modeled
// on eBay-akutan's query/exec.Events: an operator reports one
// completion event when its output channel closes. send is a
// pass-through and reports none, and join reports none of its own.
type Events interface {
	OnOperatorDone(OpCompletedEvent)
}

// Deps bundles the externally-supplied collaborators a query execution
// needs.
type Deps struct {
	Graph      graph.Adapter
	Opener     RemoteOpener
	Logger     logging.Logger
	Events     Events
	BufferSize int
	SelfURL    string
}

// ExecContext is the shared, read-only-after-construction state handed
// to every operator builder for one query execution.
type ExecContext struct {
	ctx     context.Context
	group   *errgroup.Group
	plan    *plan.Plan
	remotes chan RemoteStream

	// traverseWG tracks live traverse-operator goroutines: once it
	// reaches zero no operator can discover a new proxy crossing, so
	// remotes is safe to close.
	traverseWG sync.WaitGroup

	params map[plan.PathVar]any

	graph   graph.Adapter
	opener  RemoteOpener
	logger  logging.Logger
	events  Events
	bufSize int
	selfURL string
}

func newExecContext(ctx context.Context, group *errgroup.Group, p *plan.Plan, d Deps) *ExecContext {
	bufSize := d.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	events := d.Events
	if events == nil {
		events = noopEvents{}
	}
	return &ExecContext{
		ctx:     ctx,
		group:   group,
		plan:    p,
		remotes: make(chan RemoteStream, bufSize),
		graph:   d.Graph,
		opener:  d.Opener,
		logger:  logger,
		events:  events,
		bufSize: bufSize,
		selfURL: d.SelfURL,
	}
}

// dropPT logs a non-fatal, per-PT failure: the offending PT is
// silently discarded by the caller, but the drop itself is never
// silent in the log.
func (ec *ExecContext) dropPT(opID plan.OpID, err error) {
	ec.logger.Warn("dropping path tuple", logging.OpID(opID), logging.Error(err))
}

type noopEvents struct{}

func (noopEvents) OnOperatorDone(OpCompletedEvent) {}
