// Package inproc is the in-process transport.Factory the tests use: an
// in-memory request/reply and push/pull medium shared by every peer
// that joins the same Network, so go test ./... exercises the full peer
// protocol without opening a real socket. The cmd binaries use
// internal/peer/mangos instead, behind the nng build tag.
package inproc

import (
	"sync"
	"time"

	"github.com/plasmagraph/plasmadb/internal/peer/transport"
	"github.com/plasmagraph/plasmadb/internal/perr"
)

type request struct {
	data  []byte
	reply chan []byte
}

type reqrepEndpoint struct {
	requests chan request
}

type pullEndpoint struct {
	frames chan []byte
}

// Network is the shared medium a set of in-process peers dial into and
// listen on. Tests construct one Network and hand every peer its own
// Factory wrapping it.
type Network struct {
	mu     sync.Mutex
	reqrep map[string]*reqrepEndpoint
	pull   map[string]*pullEndpoint
}

// NewNetwork returns an empty shared medium.
func NewNetwork() *Network {
	return &Network{
		reqrep: make(map[string]*reqrepEndpoint),
		pull:   make(map[string]*pullEndpoint),
	}
}

func (n *Network) registerReqRep(addr string, ep *reqrepEndpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.reqrep[addr]; exists {
		return perr.New(perr.TransportFailure, "inproc: address already in use: "+addr)
	}
	n.reqrep[addr] = ep
	return nil
}

func (n *Network) unregisterReqRep(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reqrep, addr)
}

func (n *Network) lookupReqRep(addr string) (*reqrepEndpoint, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ep, ok := n.reqrep[addr]
	if !ok {
		return nil, perr.New(perr.TransportFailure, "inproc: no listener at: "+addr)
	}
	return ep, nil
}

func (n *Network) registerPull(addr string, ep *pullEndpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.pull[addr]; exists {
		return perr.New(perr.TransportFailure, "inproc: address already in use: "+addr)
	}
	n.pull[addr] = ep
	return nil
}

func (n *Network) unregisterPull(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.pull, addr)
}

func (n *Network) lookupPull(addr string) (*pullEndpoint, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ep, ok := n.pull[addr]
	if !ok {
		return nil, perr.New(perr.TransportFailure, "inproc: no listener at: "+addr)
	}
	return ep, nil
}

// Factory builds sockets bound to one Network.
type Factory struct {
	net *Network
}

// NewFactory returns a transport.Factory whose sockets all rendezvous
// through net.
func NewFactory(net *Network) *Factory {
	return &Factory{net: net}
}

func (f *Factory) NewRequestSocket() (transport.DialSocket, error) {
	return &requestSocket{net: f.net}, nil
}

func (f *Factory) NewReplySocket() (transport.ListenSocket, error) {
	return &replySocket{net: f.net, ep: &reqrepEndpoint{requests: make(chan request, 64)}}, nil
}

func (f *Factory) NewPushSocket() (transport.DialSocket, error) {
	return &pushSocket{net: f.net}, nil
}

func (f *Factory) NewPullSocket() (transport.ListenSocket, error) {
	return &pullSocket{net: f.net}, nil
}

var _ transport.Factory = (*Factory)(nil)

func afterDeadline(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	return time.After(d)
}

// requestSocket is the dial side of a request/reply pair: one
// outstanding request at a time.
type requestSocket struct {
	net          *Network
	ep           *reqrepEndpoint
	pendingReply chan []byte
	recvDeadline time.Duration
	sendDeadline time.Duration
}

func (s *requestSocket) Dial(addr string) error {
	ep, err := s.net.lookupReqRep(addr)
	if err != nil {
		return err
	}
	s.ep = ep
	return nil
}

func (s *requestSocket) Send(data []byte) error {
	if s.ep == nil {
		return perr.New(perr.TransportFailure, "inproc: request socket not dialed")
	}
	reply := make(chan []byte, 1)
	select {
	case s.ep.requests <- request{data: data, reply: reply}:
		s.pendingReply = reply
		return nil
	case <-afterDeadline(s.sendDeadline):
		return perr.New(perr.Timeout, "inproc: send deadline exceeded")
	}
}

func (s *requestSocket) Recv() ([]byte, error) {
	if s.pendingReply == nil {
		return nil, perr.New(perr.TransportFailure, "inproc: no request in flight")
	}
	select {
	case data := <-s.pendingReply:
		s.pendingReply = nil
		return data, nil
	case <-afterDeadline(s.recvDeadline):
		return nil, perr.New(perr.Timeout, "inproc: recv deadline exceeded")
	}
}

func (s *requestSocket) SetRecvDeadline(d time.Duration) error { s.recvDeadline = d; return nil }
func (s *requestSocket) SetSendDeadline(d time.Duration) error { s.sendDeadline = d; return nil }
func (s *requestSocket) Close() error                          { return nil }

// replySocket is the listen side: Recv hands back the next inbound
// request and remembers its reply channel, Send delivers to whichever
// request Recv most recently returned.
type replySocket struct {
	net          *Network
	ep           *reqrepEndpoint
	addr         string
	pendingReply chan []byte
	recvDeadline time.Duration
	sendDeadline time.Duration
}

func (s *replySocket) Listen(addr string) error {
	if err := s.net.registerReqRep(addr, s.ep); err != nil {
		return err
	}
	s.addr = addr
	return nil
}

func (s *replySocket) Recv() ([]byte, error) {
	select {
	case req, ok := <-s.ep.requests:
		if !ok {
			return nil, perr.New(perr.TransportFailure, "inproc: reply socket closed")
		}
		s.pendingReply = req.reply
		return req.data, nil
	case <-afterDeadline(s.recvDeadline):
		return nil, perr.New(perr.Timeout, "inproc: recv deadline exceeded")
	}
}

func (s *replySocket) Send(data []byte) error {
	if s.pendingReply == nil {
		return perr.New(perr.TransportFailure, "inproc: no pending request to reply to")
	}
	select {
	case s.pendingReply <- data:
		s.pendingReply = nil
		return nil
	case <-afterDeadline(s.sendDeadline):
		return perr.New(perr.Timeout, "inproc: send deadline exceeded")
	}
}

func (s *replySocket) SetRecvDeadline(d time.Duration) error { s.recvDeadline = d; return nil }
func (s *replySocket) SetSendDeadline(d time.Duration) error { s.sendDeadline = d; return nil }

func (s *replySocket) Close() error {
	if s.addr != "" {
		s.net.unregisterReqRep(s.addr)
	}
	return nil
}

// pushSocket streams frames at whatever pull listener is bound to its
// dial address; used to forward sub-query result frames.
type pushSocket struct {
	net          *Network
	addr         string
	sendDeadline time.Duration
}

func (s *pushSocket) Dial(addr string) error { s.addr = addr; return nil }

func (s *pushSocket) Send(data []byte) error {
	ep, err := s.net.lookupPull(s.addr)
	if err != nil {
		return err
	}
	select {
	case ep.frames <- data:
		return nil
	case <-afterDeadline(s.sendDeadline):
		return perr.New(perr.Timeout, "inproc: send deadline exceeded")
	}
}

func (s *pushSocket) Recv() ([]byte, error) {
	return nil, perr.New(perr.TransportFailure, "inproc: push socket cannot receive")
}

func (s *pushSocket) SetRecvDeadline(time.Duration) error   { return nil }
func (s *pushSocket) SetSendDeadline(d time.Duration) error { s.sendDeadline = d; return nil }
func (s *pushSocket) Close() error                          { return nil }

// pullSocket accepts whatever frames arrive from push sockets dialed
// at its bound address.
type pullSocket struct {
	net          *Network
	ep           *pullEndpoint
	addr         string
	recvDeadline time.Duration
}

func (s *pullSocket) Listen(addr string) error {
	s.ep = &pullEndpoint{frames: make(chan []byte, 64)}
	if err := s.net.registerPull(addr, s.ep); err != nil {
		return err
	}
	s.addr = addr
	return nil
}

func (s *pullSocket) Recv() ([]byte, error) {
	select {
	case data, ok := <-s.ep.frames:
		if !ok {
			return nil, perr.New(perr.TransportFailure, "inproc: pull socket closed")
		}
		return data, nil
	case <-afterDeadline(s.recvDeadline):
		return nil, perr.New(perr.Timeout, "inproc: recv deadline exceeded")
	}
}

func (s *pullSocket) Send([]byte) error {
	return perr.New(perr.TransportFailure, "inproc: pull socket cannot send")
}

func (s *pullSocket) SetRecvDeadline(d time.Duration) error { s.recvDeadline = d; return nil }
func (s *pullSocket) SetSendDeadline(time.Duration) error   { return nil }

func (s *pullSocket) Close() error {
	if s.addr != "" {
		s.net.unregisterPull(s.addr)
	}
	return nil
}
