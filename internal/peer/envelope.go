package peer

import (
	"encoding/json"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/plan"
)

// Envelope is the request-channel wire shape: {id, method, params}.
// Token carries the caller's peerauth-issued bearer token when the
// peer has WithAuth configured; empty when auth is disabled.
type Envelope struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	Token  string          `json:"token,omitempty"`
}

// ErrorEnvelope is the {message, cause?} body of a failed response.
type ErrorEnvelope struct {
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// ResponseEnvelope is {id, result} or {id, error}.
type ResponseEnvelope struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorEnvelope  `json:"error,omitempty"`
}

const (
	methodPing             = "ping"
	methodNodeByUUID       = "node-by-uuid"
	methodQuery            = "query"
	methodSubQuery         = "sub-query"
	methodRecurQuery       = "recur-query"
	methodRecurQueryResult = "recur-query-result"
	methodIterNQuery       = "iter-n-query"
)

// pingResult is ping's fixed marker payload.
type pingResult struct {
	Marker string `json:"marker"`
}

const pingMarker = "plasma-pong"

type nodeByUUIDParams struct {
	ID graph.NodeID `json:"id"`
}

type nodeByUUIDResult struct {
	Node  *graph.Node `json:"node,omitempty"`
	Found bool        `json:"found"`
}

type queryParams struct {
	Plan   *plan.Plan           `json:"plan"`
	Params map[plan.PathVar]any `json:"params,omitempty"`
}

type queryResult struct {
	Rows []pathtuple.PT `json:"rows"`
}

// subQueryParams is sub-query's request body: the sub-plan to run,
// plus the address the caller's pull socket is already listening on
// for result frames. The stream channel needs somewhere to push
// frames to, so reply_addr travels alongside the plan in the same
// request rather than over a second round trip.
type subQueryParams struct {
	Plan      *plan.Plan `json:"plan"`
	ReplyAddr string     `json:"reply_addr"`
}

// subQueryAck is sub-query's synchronous reply: it only confirms the
// remote peer accepted the plan and will start pushing frames: the
// actual rows arrive later, out of band, over the push/pull pair.
type subQueryAck struct{}

type recurQueryParams struct {
	Plan *plan.Plan `json:"plan"`
}

type recurQueryResult struct {
	Row pathtuple.PT `json:"row"`
}

// recurQueryResultDelivery is recur-query-result's request body: the
// single result event a recursion's originator receives once every
// branch has resolved.
type recurQueryResultDelivery struct {
	Row pathtuple.PT `json:"row"`
}

type recurQueryResultAck struct{}

type iterNQueryParams struct {
	Plan *plan.Plan `json:"plan"`
}

type iterNQueryResult struct {
	Rows []pathtuple.PT `json:"rows"`
}
