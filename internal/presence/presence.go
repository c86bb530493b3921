// Package presence is a minimal loopback stand-in for a LAN-broadcast
// presence layer: on a real deployment, peers discover each other by
// periodically broadcasting and listening on a local subnet. That
// broadcast/listen loop is out of scope here — what
// this package keeps is the shape a caller needs regardless of how
// discovery happens underneath: register this peer (and any seed peers
// it was told about up front), list who is currently known, and
// deregister on shutdown.
package presence

import "sync"

// Registry tracks the set of peer URLs known to one process. A real
// implementation would refresh this set from UDP broadcasts arriving
// on its own goroutine; this one only ever contains what Register put
// in, which is enough for internal/peer.Peer to have something concrete
// to populate and tear down.
type Registry struct {
	mu    sync.Mutex
	peers map[string]struct{}
	self  string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]struct{})}
}

// Register records selfURL as present and seeds the known-peers set
// with seedURLs, the way a real registry would seed its initial view
// from a config's seed-peer list before the first broadcast arrives.
func (r *Registry) Register(selfURL string, seedURLs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.self = selfURL
	r.peers[selfURL] = struct{}{}
	for _, u := range seedURLs {
		r.peers[u] = struct{}{}
	}
}

// Peers returns every peer URL currently known, self included. Order
// is unspecified.
func (r *Registry) Peers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.peers))
	for u := range r.peers {
		out = append(out, u)
	}
	return out
}

// Deregister removes self from the known-peers set. Called on peer
// shutdown; a real broadcast-based registry would instead just stop
// announcing and let other peers' entries expire.
func (r *Registry) Deregister() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.self != "" {
		delete(r.peers, r.self)
		r.self = ""
	}
}
