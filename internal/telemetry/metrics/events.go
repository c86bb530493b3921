package metrics

import (
	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/runtime"
)

// EventsSink adapts a Registry into a runtime.Events, so every
// operator's completion callback feeds the traverse/proxy-crossing
// counters directly instead of the runtime package needing to know
// about Prometheus at all.
type EventsSink struct {
	registry *Registry
	peerURL  string
}

// NewEventsSink returns a runtime.Events backed by r. peerURL labels
// this peer's proxy-crossing counters.
func NewEventsSink(r *Registry, peerURL string) *EventsSink {
	return &EventsSink{registry: r, peerURL: peerURL}
}

func (s *EventsSink) OnOperatorDone(e runtime.OpCompletedEvent) {
	if e.OpType != plan.OpTraverse {
		return
	}
	s.registry.TraverseEmittedTotal.Add(float64(e.Emitted))
	s.registry.TraverseDroppedTotal.Add(float64(e.Dropped))
	if e.Proxies > 0 {
		s.registry.ProxyCrossingsTotal.WithLabelValues(s.peerURL).Add(float64(e.Proxies))
	}
}

var _ runtime.Events = (*EventsSink)(nil)
