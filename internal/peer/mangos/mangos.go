//go:build nng

// Package mangos implements internal/peer/transport.Factory over
// real nanomsg/mangos-v3 sockets: a request/reply pair for plasma's
// request channel, a push/pull pair for its stream channel. Built
// only under the nng tag so the default build and go test ./... never
// need cgo or an open socket.
package mangos

import (
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pull"
	"go.nanomsg.org/mangos/v3/protocol/push"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	"go.nanomsg.org/mangos/v3/protocol/req"

	// Register the TCP/IPC transports the req/rep and push/pull
	// sockets above dial and listen over.
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/plasmagraph/plasmadb/internal/peer/transport"
)

type socket struct {
	sock mangos.Socket
}

func (s *socket) Send(data []byte) error { return s.sock.Send(data) }
func (s *socket) Recv() ([]byte, error)  { return s.sock.Recv() }
func (s *socket) Close() error           { return s.sock.Close() }

func (s *socket) SetRecvDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionRecvDeadline, d)
}

func (s *socket) SetSendDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionSendDeadline, d)
}

func (s *socket) Dial(addr string) error   { return s.sock.Dial(addr) }
func (s *socket) Listen(addr string) error { return s.sock.Listen(addr) }

// Factory creates mangos-backed sockets.
type Factory struct{}

// NewFactory returns a transport.Factory backed by real nanomsg
// sockets.
func NewFactory() *Factory { return &Factory{} }

func (f *Factory) NewRequestSocket() (transport.DialSocket, error) {
	sock, err := req.NewSocket()
	if err != nil {
		return nil, err
	}
	return &socket{sock: sock}, nil
}

func (f *Factory) NewReplySocket() (transport.ListenSocket, error) {
	sock, err := rep.NewSocket()
	if err != nil {
		return nil, err
	}
	return &socket{sock: sock}, nil
}

func (f *Factory) NewPushSocket() (transport.DialSocket, error) {
	sock, err := push.NewSocket()
	if err != nil {
		return nil, err
	}
	return &socket{sock: sock}, nil
}

func (f *Factory) NewPullSocket() (transport.ListenSocket, error) {
	sock, err := pull.NewSocket()
	if err != nil {
		return nil, err
	}
	return &socket{sock: sock}, nil
}

var _ transport.Factory = (*Factory)(nil)
