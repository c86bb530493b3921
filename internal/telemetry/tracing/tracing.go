// Package tracing wires OpenTelemetry spans around plan execution,
// modeled on eBay-akutan's query/exec.Events shape: rather than a span
// per operator (operators don't report their own start, only their
// completion), one span covers the whole query and every operator's
// completion is recorded as a span event on it.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/plasmagraph/plasmadb/internal/plan"
	"github.com/plasmagraph/plasmadb/internal/runtime"
)

const tracerName = "github.com/plasmagraph/plasmadb/internal/peer"

// Tracer wraps an otel Tracer for plasma's query spans.
type Tracer struct {
	tracer trace.Tracer
}

// New returns a Tracer drawing spans from the global TracerProvider —
// a peer daemon installs its own SDK provider via otel.SetTracerProvider
// before serving, tests can leave the no-op default in place.
func New() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// StartQuery opens a span covering one query's execution and returns
// an EventsSink that records every operator's completion onto it.
// Callers must End the returned span once the query's result channel
// closes.
func (t *Tracer) StartQuery(ctx context.Context, p *plan.Plan) (context.Context, trace.Span, *EventsSink) {
	planType := string(p.Type)
	if planType == "" {
		planType = "query"
	}
	ctx, span := t.tracer.Start(ctx, "plasma.query",
		trace.WithAttributes(
			attribute.String("plasma.plan_type", planType),
			attribute.Int("plasma.htl", p.HTL),
			attribute.String("plasma.root", string(p.Root)),
		),
	)
	return ctx, span, &EventsSink{span: span}
}

// EventsSink implements runtime.Events by recording each operator's
// completion as a span event, and marking the span as errored the
// first time an operator reports one.
type EventsSink struct {
	span trace.Span
}

func (s *EventsSink) OnOperatorDone(e runtime.OpCompletedEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("op.id", string(e.OpID)),
		attribute.String("op.type", string(e.OpType)),
		attribute.Int("op.emitted", e.Emitted),
		attribute.Int("op.dropped", e.Dropped),
	}
	if e.Proxies > 0 {
		attrs = append(attrs, attribute.Int("op.proxies", e.Proxies))
	}
	s.span.AddEvent("operator.done", trace.WithAttributes(attrs...))
	if e.Error != nil {
		s.span.RecordError(e.Error)
		s.span.SetStatus(codes.Error, e.Error.Error())
	}
}

var _ runtime.Events = (*EventsSink)(nil)
