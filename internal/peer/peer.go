// Package peer is the facade that runs plans locally via
// internal/runtime and exposes the peer-to-peer RPC operations over
// an internal/peer/transport.Factory. It implements
// runtime.RemoteOpener, so a traverse operator's proxy crossing opens
// a sub-query through this same facade without internal/runtime ever
// importing this package back (internal/runtime/context.go's
// RemoteOpener doc comment explains the direction this dependency has
// to run).
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/plasmagraph/plasmadb/internal/graph"
	"github.com/plasmagraph/plasmadb/internal/iterquery"
	"github.com/plasmagraph/plasmadb/internal/logging"
	"github.com/plasmagraph/plasmadb/internal/pathtuple"
	"github.com/plasmagraph/plasmadb/internal/peer/transport"
	"github.com/plasmagraph/plasmadb/internal/peerauth"
	"github.com/plasmagraph/plasmadb/internal/perr"
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/presence"
	"github.com/plasmagraph/plasmadb/internal/runtime"
	"github.com/plasmagraph/plasmadb/internal/telemetry/metrics"
	"github.com/plasmagraph/plasmadb/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Peer is one node in the network: a local graph, a transport
// factory, and the RPC glue that lets a remote peer's traverse
// operator cross over onto this one's graph.
type Peer struct {
	selfURL string
	factory transport.Factory
	graph   graph.Adapter
	logger  logging.Logger
	metrics  *metrics.Registry
	tracer   *tracing.Tracer
	presence *presence.Registry
	auth     *peerauth.Manager

	mu  sync.Mutex
	rep transport.ListenSocket

	// recurMu guards recurWaiters: callers blocked in WaitRecurResult,
	// keyed by a subscription id private to this process — there is no
	// wire-level correlation id on a recur-query-result delivery, since
	// there is exactly one such event per recursive query and this peer
	// only ever originates one recursive query at a time in the tested
	// scenarios.
	recurMu      sync.Mutex
	recurWaiters map[uint64]chan pathtuple.PT

	nextID atomic.Uint64
	closed chan struct{}
}

// New returns a Peer that has not yet started listening; call Listen
// to bind its request/reply socket.
func New(selfURL string, factory transport.Factory, g graph.Adapter, logger logging.Logger) *Peer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Peer{
		selfURL: selfURL,
		factory: factory,
		graph:   g,
		logger:  logger,
		closed:  make(chan struct{}),
	}
}

// SelfURL returns the address this peer listens on.
func (p *Peer) SelfURL() string { return p.selfURL }

// WithMetrics attaches a metrics registry; every subsequent Query and
// served RPC records against it. Optional — a Peer with no registry
// attached runs exactly as before.
func (p *Peer) WithMetrics(r *metrics.Registry) *Peer {
	p.metrics = r
	return p
}

// WithTracer attaches an OpenTelemetry tracer; every subsequent
// Query call gets a plasma.query span. Optional.
func (p *Peer) WithTracer(t *tracing.Tracer) *Peer {
	p.tracer = t
	return p
}

// WithAuth attaches a peerauth.Manager: every subsequent sub-query,
// recur-query, iter-n-query, and recur-query-result request this peer
// sends carries a signed token, and every such request this peer
// accepts must carry one it can verify. Optional — a Peer with no
// manager attached accepts peer-to-peer requests unauthenticated, as
// before.
func (p *Peer) WithAuth(m *peerauth.Manager) *Peer {
	p.auth = m
	return p
}

// WithPresence attaches a presence registry and immediately registers
// this peer's own URL plus any seedURLs against it. Optional — a Peer
// with no registry attached simply has nothing for Close to tear down.
func (p *Peer) WithPresence(r *presence.Registry, seedURLs ...string) *Peer {
	p.presence = r
	r.Register(p.selfURL, seedURLs...)
	return p
}

// Peers returns the peer URLs known via the attached presence
// registry, or nil if none is attached.
func (p *Peer) Peers() []string {
	if p.presence == nil {
		return nil
	}
	return p.presence.Peers()
}

// multiEvents fans one operator-completion callback out to several
// runtime.Events sinks — a query can be both metered and traced at
// once.
type multiEvents []runtime.Events

func (m multiEvents) OnOperatorDone(e runtime.OpCompletedEvent) {
	for _, s := range m {
		s.OnOperatorDone(e)
	}
}

// Listen binds the request/reply socket and starts serving RPCs.
func (p *Peer) Listen() error {
	rep, err := p.factory.NewReplySocket()
	if err != nil {
		return perr.Wrap(perr.TransportFailure, "peer: new reply socket", err)
	}
	if err := rep.Listen(p.selfURL); err != nil {
		return perr.Wrap(perr.TransportFailure, "peer: listen "+p.selfURL, err)
	}
	p.mu.Lock()
	p.rep = rep
	p.mu.Unlock()
	go p.serve(rep)
	return nil
}

// Close stops serving RPCs. Any in-flight sub-query streams drain on
// their own once their source plan's execution finishes.
func (p *Peer) Close() error {
	select {
	case <-p.closed:
		return nil
	default:
		close(p.closed)
	}
	if p.presence != nil {
		p.presence.Deregister()
	}
	p.mu.Lock()
	rep := p.rep
	p.mu.Unlock()
	if rep == nil {
		return nil
	}
	return rep.Close()
}

func (p *Peer) serve(rep transport.ListenSocket) {
	for {
		data, err := rep.Recv()
		if err != nil {
			select {
			case <-p.closed:
			default:
				p.logger.Warn("peer: request recv failed", logging.PeerURL(p.selfURL), logging.Error(err))
			}
			return
		}
		resp := p.dispatch(data)
		out, err := json.Marshal(resp)
		if err != nil {
			p.logger.Error("peer: marshal response failed", logging.PeerURL(p.selfURL), logging.Error(err))
			continue
		}
		if err := rep.Send(out); err != nil {
			p.logger.Warn("peer: reply send failed", logging.PeerURL(p.selfURL), logging.Error(err))
		}
	}
}

// authedMethods are the peer-to-peer continuation operations that
// carry one peer's request onto another's graph: these are the only
// methods checked against WithAuth, since ping and node-by-uuid are
// harmless reads and query is the client-facing entry point a local
// caller issues directly.
var authedMethods = map[string]bool{
	methodSubQuery:         true,
	methodRecurQuery:       true,
	methodIterNQuery:       true,
	methodRecurQueryResult: true,
}

func (p *Peer) dispatch(data []byte) ResponseEnvelope {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errorResponse("", perr.Wrap(perr.PlanInvalid, "peer: malformed request envelope", err))
	}

	if p.auth != nil && authedMethods[env.Method] {
		if _, err := p.auth.Verify(env.Token); err != nil {
			p.logger.Warn("peer: rejected unauthenticated request", logging.PeerURL(p.selfURL), logging.Error(err))
			return errorResponse(env.ID, perr.Wrap(perr.Unauthorized, "peer: "+env.Method+" requires a valid token", err))
		}
	}

	start := time.Now()
	result, err := p.handle(context.Background(), env.Method, env.Params)
	if p.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordRPC(env.Method, status, time.Since(start))
	}
	if err != nil {
		return errorResponse(env.ID, err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(env.ID, perr.Wrap(perr.PlanInvalid, "peer: marshal result", err))
	}
	return ResponseEnvelope{ID: env.ID, Result: raw}
}

func (p *Peer) handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case methodPing:
		return pingResult{Marker: pingMarker}, nil

	case methodNodeByUUID:
		var pr nodeByUUIDParams
		if err := json.Unmarshal(params, &pr); err != nil {
			return nil, perr.Wrap(perr.PlanInvalid, "peer: bad node-by-uuid params", err)
		}
		node, found := p.NodeByUUID(pr.ID)
		return nodeByUUIDResult{Node: node, Found: found}, nil

	case methodQuery:
		var pr queryParams
		if err := json.Unmarshal(params, &pr); err != nil {
			return nil, perr.Wrap(perr.PlanInvalid, "peer: bad query params", err)
		}
		rows, err := p.Query(ctx, pr.Plan, pr.Params)
		if err != nil {
			return nil, err
		}
		return queryResult{Rows: rows}, nil

	case methodSubQuery:
		var pr subQueryParams
		if err := json.Unmarshal(params, &pr); err != nil {
			return nil, perr.Wrap(perr.PlanInvalid, "peer: bad sub-query params", err)
		}
		go p.serveSubQuery(pr.Plan, pr.ReplyAddr)
		return subQueryAck{}, nil

	case methodRecurQuery:
		var pr recurQueryParams
		if err := json.Unmarshal(params, &pr); err != nil {
			return nil, perr.Wrap(perr.PlanInvalid, "peer: bad recur-query params", err)
		}
		rows, err := iterquery.RunRecur(ctx, p, pr.Plan)
		if err != nil {
			return nil, err
		}
		var row pathtuple.PT
		if len(rows) > 0 {
			row = rows[0]
		}
		return recurQueryResult{Row: row}, nil

	case methodIterNQuery:
		var pr iterNQueryParams
		if err := json.Unmarshal(params, &pr); err != nil {
			return nil, perr.Wrap(perr.PlanInvalid, "peer: bad iter-n-query params", err)
		}
		rows, err := iterquery.RunIterN(ctx, p, pr.Plan)
		if err != nil {
			return nil, err
		}
		return iterNQueryResult{Rows: rows}, nil

	case methodRecurQueryResult:
		var pr recurQueryResultDelivery
		if err := json.Unmarshal(params, &pr); err != nil {
			return nil, perr.Wrap(perr.PlanInvalid, "peer: bad recur-query-result params", err)
		}
		p.onRecurResult(pr.Row)
		return recurQueryResultAck{}, nil

	default:
		return nil, perr.New(perr.PlanInvalid, "peer: unknown method "+method)
	}
}

func errorResponse(id string, err error) ResponseEnvelope {
	ee := &ErrorEnvelope{Message: err.Error()}
	if pe, ok := err.(*perr.Error); ok {
		ee.Kind = string(pe.Kind)
		ee.Message = pe.Message
		if pe.Cause != nil {
			ee.Cause = pe.Cause.Error()
		}
	}
	return ResponseEnvelope{ID: id, Error: ee}
}

// Ping returns this peer's fixed marker — a local call, not an RPC.
func (p *Peer) Ping() string { return pingMarker }

// CallPing pings a remote peer over the wire and returns its marker.
func (p *Peer) CallPing(ctx context.Context, peerURL string) (string, error) {
	raw, err := p.call(ctx, peerURL, methodPing, nil)
	if err != nil {
		return "", err
	}
	var res pingResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", perr.Wrap(perr.PlanInvalid, "peer: malformed ping result", err)
	}
	return res.Marker, nil
}

// NodeByUUID looks up a node in this peer's own graph.
func (p *Peer) NodeByUUID(id graph.NodeID) (*graph.Node, bool) {
	return p.graph.FindNode(id)
}

// QueryChannel runs pl against this peer's graph and returns its
// result stream. It also implements the internal half of
// runtime.RemoteOpener.OpenSubQuery when a proxy crossing resolves
// back to this same peer.
func (p *Peer) QueryChannel(ctx context.Context, pl *plan.Plan, params map[plan.PathVar]any) (<-chan pathtuple.PT, error) {
	return p.runQuery(ctx, pl, params, nil)
}

func (p *Peer) runQuery(ctx context.Context, pl *plan.Plan, params map[plan.PathVar]any, extra runtime.Events) (<-chan pathtuple.PT, error) {
	deps := runtime.Deps{
		Graph:   p.graph,
		Opener:  p,
		Logger:  p.logger,
		SelfURL: p.selfURL,
	}
	var sinks multiEvents
	if p.metrics != nil {
		sinks = append(sinks, metrics.NewEventsSink(p.metrics, p.selfURL))
	}
	if extra != nil {
		sinks = append(sinks, extra)
	}
	if len(sinks) > 0 {
		deps.Events = sinks
	}
	return runtime.Run(ctx, pl, params, deps)
}

// Query runs pl to completion and collects its full result set. When a
// tracer is attached, the whole run — including any proxy crossings it
// triggers — is wrapped in one plasma.query span.
func (p *Peer) Query(ctx context.Context, pl *plan.Plan, params map[plan.PathVar]any) ([]pathtuple.PT, error) {
	start := time.Now()

	var span trace.Span
	var traceEvents runtime.Events
	if p.tracer != nil {
		var sink *tracing.EventsSink
		ctx, span, sink = p.tracer.StartQuery(ctx, pl)
		traceEvents = sink
		defer span.End()
	}

	ch, err := p.runQuery(ctx, pl, params, traceEvents)
	if err != nil {
		p.recordQuery(pl, start, 0, err)
		if span != nil {
			span.RecordError(err)
		}
		return nil, err
	}
	var rows []pathtuple.PT
	for pt := range ch {
		rows = append(rows, pt)
	}
	p.recordQuery(pl, start, len(rows), nil)
	return rows, nil
}

func (p *Peer) recordQuery(pl *plan.Plan, start time.Time, rows int, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	planType := string(pl.Type)
	if planType == "" {
		planType = "query"
	}
	p.metrics.RecordQuery(planType, status, time.Since(start), rows)
}

// OpenSubQuery implements runtime.RemoteOpener: a traverse operator
// that just cut a sub-plan at a proxy crossing calls this to ship it
// to peerURL and get back the resulting stream, merged onto the
// receive operator's meta-channel by the caller.
func (p *Peer) OpenSubQuery(ctx context.Context, peerURL string, sp *plan.Plan) (runtime.RemoteStream, error) {
	if peerURL == "" || peerURL == p.selfURL {
		return p.QueryChannel(ctx, sp, nil)
	}
	return p.dialSubQuery(ctx, peerURL, sp)
}

// onRecurResult fans a delivered recur-query result out to every
// caller currently blocked in WaitRecurResult.
func (p *Peer) onRecurResult(row pathtuple.PT) {
	p.recurMu.Lock()
	defer p.recurMu.Unlock()
	for _, ch := range p.recurWaiters {
		select {
		case ch <- row:
		default:
		}
	}
}

// WaitRecurResult blocks until this peer receives a recur-query-result
// delivery — the originator listens for a single event bearing the
// final result — or ctx is done.
func (p *Peer) WaitRecurResult(ctx context.Context) (pathtuple.PT, error) {
	ch := make(chan pathtuple.PT, 1)
	id := p.nextID.Add(1)

	p.recurMu.Lock()
	if p.recurWaiters == nil {
		p.recurWaiters = make(map[uint64]chan pathtuple.PT)
	}
	p.recurWaiters[id] = ch
	p.recurMu.Unlock()
	defer func() {
		p.recurMu.Lock()
		delete(p.recurWaiters, id)
		p.recurMu.Unlock()
	}()

	select {
	case row := <-ch:
		return row, nil
	case <-ctx.Done():
		return pathtuple.PT{}, ctx.Err()
	}
}

// DeliverRecurResult implements iterquery.Runner: it ships a
// recur-query's merged final result to destURL, where the originating
// peer is waiting on a single result event.
func (p *Peer) DeliverRecurResult(ctx context.Context, destURL string, rows []pathtuple.PT) error {
	var row pathtuple.PT
	if len(rows) > 0 {
		row = rows[0]
	}
	body, err := json.Marshal(recurQueryResultDelivery{Row: row})
	if err != nil {
		return perr.Wrap(perr.PlanInvalid, "peer: marshal recur-query-result delivery", err)
	}
	_, err = p.call(ctx, destURL, methodRecurQueryResult, body)
	return err
}

// newID returns a fresh request-correlation id for the envelope
// wrapping one RPC call. A random id, not a per-process counter, so
// two peers that each restart mid-query never produce a colliding id
// on the wire.
func (p *Peer) newID() string {
	return uuid.New().String()
}

// call performs one request/reply round trip against a remote peer.
func (p *Peer) call(ctx context.Context, peerURL, method string, params json.RawMessage) (json.RawMessage, error) {
	req, err := p.factory.NewRequestSocket()
	if err != nil {
		return nil, perr.Wrap(perr.TransportFailure, "peer: new request socket", err)
	}
	defer req.Close()

	if err := req.Dial(peerURL); err != nil {
		return nil, perr.Wrap(perr.TransportFailure, "peer: dial "+peerURL, err)
	}

	env := Envelope{ID: p.newID(), Method: method, Params: params}
	if p.auth != nil {
		token, err := p.auth.Issue(p.selfURL)
		if err != nil {
			return nil, perr.Wrap(perr.Unauthorized, "peer: issue token", err)
		}
		env.Token = token
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, perr.Wrap(perr.PlanInvalid, "peer: marshal request", err)
	}
	if err := req.Send(data); err != nil {
		return nil, perr.Wrap(perr.TransportFailure, "peer: send to "+peerURL, err)
	}

	raw, err := req.Recv()
	if err != nil {
		return nil, perr.Wrap(perr.TransportFailure, "peer: recv from "+peerURL, err)
	}
	var resp ResponseEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, perr.Wrap(perr.PlanInvalid, "peer: malformed response envelope", err)
	}
	if resp.Error != nil {
		kind := perr.Kind(resp.Error.Kind)
		if kind == "" {
			kind = perr.RemoteError
		}
		return nil, perr.New(kind, resp.Error.Message)
	}
	return resp.Result, nil
}

// dialSubQuery ships sp to peerURL's request channel and streams the
// result back over a fresh pull socket: the request/reply round trip
// only confirms acceptance, the rows themselves arrive out of band
// over push/pull.
func (p *Peer) dialSubQuery(ctx context.Context, peerURL string, sp *plan.Plan) (runtime.RemoteStream, error) {
	replyAddr := fmt.Sprintf("%s#sub/%d", p.selfURL, p.nextID.Add(1))

	pull, err := p.factory.NewPullSocket()
	if err != nil {
		return nil, perr.Wrap(perr.TransportFailure, "peer: new pull socket", err)
	}
	if err := pull.Listen(replyAddr); err != nil {
		pull.Close()
		return nil, perr.Wrap(perr.TransportFailure, "peer: listen "+replyAddr, err)
	}

	body, err := json.Marshal(subQueryParams{Plan: sp, ReplyAddr: replyAddr})
	if err != nil {
		pull.Close()
		return nil, perr.Wrap(perr.PlanInvalid, "peer: marshal sub-query params", err)
	}
	if _, err := p.call(ctx, peerURL, methodSubQuery, body); err != nil {
		pull.Close()
		return nil, err
	}

	out := make(chan pathtuple.PT, runtime.DefaultBufferSize)
	go p.readSubQueryStream(ctx, pull, out)
	return out, nil
}

// readSubQueryStream forwards frames from pull onto out until it sees
// the empty terminal frame serveSubQuery sends on completion, or the
// socket errors (timeout or the remote peer going away).
func (p *Peer) readSubQueryStream(ctx context.Context, pull transport.ListenSocket, out chan<- pathtuple.PT) {
	defer close(out)
	defer pull.Close()

	for {
		data, err := pull.Recv()
		if err != nil {
			if !perr.Is(err, perr.Timeout) {
				p.logger.Warn("peer: sub-query stream recv failed", logging.PeerURL(p.selfURL), logging.Error(err))
			}
			return
		}
		if len(data) == 0 {
			return
		}
		var pt pathtuple.PT
		if err := json.Unmarshal(data, &pt); err != nil {
			p.logger.Warn("peer: sub-query frame decode failed", logging.PeerURL(p.selfURL), logging.Error(err))
			continue
		}
		select {
		case out <- pt:
		case <-ctx.Done():
			return
		}
	}
}

// serveSubQuery is the accepting side's background half of sub-query:
// it runs sp locally and pushes each result PT to the caller's pull
// socket at replyAddr, closing with an empty terminal frame.
func (p *Peer) serveSubQuery(sp *plan.Plan, replyAddr string) {
	push, err := p.factory.NewPushSocket()
	if err != nil {
		p.logger.Error("peer: new push socket failed", logging.PeerURL(p.selfURL), logging.Error(err))
		return
	}
	defer push.Close()

	if err := push.Dial(replyAddr); err != nil {
		p.logger.Error("peer: dial failed", logging.PeerURL(replyAddr), logging.Error(err))
		return
	}

	ch, err := p.QueryChannel(context.Background(), sp, nil)
	if err != nil {
		p.logger.Error("peer: sub-query execution failed", logging.PeerURL(p.selfURL), logging.HTL(sp.HTL), logging.Error(err))
		push.Send(nil)
		return
	}

	for pt := range ch {
		data, err := json.Marshal(pt)
		if err != nil {
			p.logger.Warn("peer: sub-query frame encode failed", logging.PeerURL(replyAddr), logging.Error(err))
			continue
		}
		if err := push.Send(data); err != nil {
			p.logger.Warn("peer: sub-query push failed", logging.PeerURL(replyAddr), logging.Error(err))
			return
		}
	}
	push.Send(nil)
}

var _ runtime.RemoteOpener = (*Peer)(nil)
var _ iterquery.Runner = (*Peer)(nil)
