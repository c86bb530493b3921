// Package plan represents the operator DAG a query lowers into: a
// serializable value that must round-trip over the wire unchanged. Op
// ids, not Go pointers, carry every dependency edge, so a Plan is safe
// to marshal and to replay identically on a remote peer.
package plan

import "github.com/plasmagraph/plasmadb/internal/pathtuple"

// OpID is a stable operator identifier assigned at plan time.
type OpID = pathtuple.OpID

// PathVar is a path-expression variable symbol, e.g. "synth" or the
// reserved "ROOT-ID".
type PathVar string

// OpType is one of the operator kinds the runtime knows how to build.
type OpType string

const (
	OpParameter  OpType = "parameter"
	OpTraverse   OpType = "traverse"
	OpJoin       OpType = "join"
	OpProperty   OpType = "property"
	OpSelect     OpType = "select"
	OpExpression OpType = "expression"
	OpProject    OpType = "project"
	OpAggregate  OpType = "aggregate"
	OpSort       OpType = "sort"
	OpMin        OpType = "min"
	OpMax        OpType = "max"
	OpAverage    OpType = "average"
	OpCount      OpType = "count"
	OpChoose     OpType = "choose"
	OpLimit      OpType = "limit"
	OpSend       OpType = "send"
	OpReceive    OpType = "receive"
)

// PlanType distinguishes an ordinary plan from the two recursive-query
// shapes iterquery drives.
type PlanType string

const (
	PlanSimple     PlanType = ""
	PlanRecurQuery PlanType = "recur-query"
	PlanIterNQuery PlanType = "iter-n-query"
)

// Op is a single operator descriptor.
type Op struct {
	ID   OpID           `json:"id"`
	Type OpType         `json:"type"`
	Deps []OpID         `json:"deps,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// ProjectItem names one projected path-variable and the properties to
// carry for it; an empty Props list projects the bare node id.
type ProjectItem struct {
	PVar  PathVar  `json:"pvar"`
	Props []string `json:"props,omitempty"`
}

// Plan is the full operator DAG for one query.
type Plan struct {
	Ops    map[OpID]*Op       `json:"ops"`
	Root   OpID               `json:"root"`
	Params map[PathVar]OpID   `json:"params"`
	PBind  map[PathVar]OpID   `json:"pbind"`

	Filters    []OpID        `json:"filters,omitempty"`
	Projection []ProjectItem `json:"projection,omitempty"`
	SrcURL     string        `json:"src_url,omitempty"`
	HTL        int           `json:"htl,omitempty"`

	// Position is the traversal endpoint: the op id a result PT's node
	// sits at immediately after the path's last hop, before receive,
	// filter, projection or tail operators are spliced in front of
	// Root. iter-n-query and recur-query reseed the next round's
	// ROOT-ID parameter by reading this key, not Root, since Root
	// usually points at a downstream operator that never rebinds it.
	Position OpID `json:"position,omitempty"`

	Type       PlanType         `json:"type,omitempty"`
	IterN      int              `json:"iter_n,omitempty"`
	Pred       *Predicate       `json:"pred,omitempty"`
	IterParams map[PathVar]OpID `json:"iter_params,omitempty"`
}

// Predicate is the boxed expression used by recur-query to decide,
// per-PT, whether to recurse locally or forward toward the terminal
// operator. Boxed as an args-style tree (rather than importing expr
// directly) to keep plan JSON self-contained; internal/iterquery
// rehydrates it via expr.Decode.
type Predicate struct {
	Tree any `json:"tree"`
}

// New returns an empty plan ready for incremental construction.
func New() *Plan {
	return &Plan{
		Ops:    make(map[OpID]*Op),
		Params: make(map[PathVar]OpID),
		PBind:  make(map[PathVar]OpID),
	}
}

// AddOp registers op in the plan, keyed by its own id.
func (p *Plan) AddOp(op *Op) {
	p.Ops[op.ID] = op
}

// Get returns the operator with the given id.
func (p *Plan) Get(id OpID) (*Op, bool) {
	op, ok := p.Ops[id]
	return op, ok
}
