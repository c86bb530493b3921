// Package metrics is the Prometheus registry for one peer process: one
// struct of already-registered collectors, grouped by concern, scoped
// to what a plasma peer actually does — run plans, cross proxies, and
// serve RPCs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric one peer process exposes.
type Registry struct {
	registry *prometheus.Registry

	QueriesTotal     *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
	QueryRowsEmitted *prometheus.HistogramVec

	TraverseEmittedTotal prometheus.Counter
	TraverseDroppedTotal prometheus.Counter
	ProxyCrossingsTotal  *prometheus.CounterVec
	HTLExhaustedTotal    prometheus.Counter

	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec

	SubQueryStreamsOpen prometheus.Gauge
}

// NewRegistry builds a fresh, independently-scrapeable registry —
// tests construct their own instead of sharing package state.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.QueriesTotal = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "plasma_queries_total",
		Help: "Total number of queries run by this peer, by plan type and outcome.",
	}, []string{"plan_type", "status"})

	r.QueryDuration = promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plasma_query_duration_seconds",
		Help:    "Query execution wall time, from Run to the result channel closing.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"plan_type"})

	r.QueryRowsEmitted = promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plasma_query_rows_emitted",
		Help:    "Number of rows a query's terminal operator emitted.",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000},
	}, []string{"plan_type"})

	r.TraverseEmittedTotal = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "plasma_traverse_emitted_total",
		Help: "Total number of PTs emitted across all traverse operators.",
	})
	r.TraverseDroppedTotal = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "plasma_traverse_dropped_total",
		Help: "Total number of PTs a traverse operator dropped (missing node, missing binding).",
	})
	r.ProxyCrossingsTotal = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "plasma_proxy_crossings_total",
		Help: "Total number of sub-queries cut and dispatched at a proxy node, by remote peer.",
	}, []string{"peer_url"})
	r.HTLExhaustedTotal = promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "plasma_htl_exhausted_total",
		Help: "Total number of times a plan hit hops-to-live zero.",
	})

	r.RPCRequestsTotal = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "plasma_rpc_requests_total",
		Help: "Total number of RPC requests this peer served, by method and outcome.",
	}, []string{"method", "status"})
	r.RPCRequestDuration = promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plasma_rpc_request_duration_seconds",
		Help:    "RPC handler latency by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	r.SubQueryStreamsOpen = promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "plasma_sub_query_streams_open",
		Help: "Number of sub-query push/pull streams currently open, either side.",
	})

	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for an HTTP
// /metrics handler to serve.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// RecordQuery records one completed (or failed) query run.
func (r *Registry) RecordQuery(planType, status string, dur time.Duration, rows int) {
	r.QueriesTotal.WithLabelValues(planType, status).Inc()
	r.QueryDuration.WithLabelValues(planType).Observe(dur.Seconds())
	r.QueryRowsEmitted.WithLabelValues(planType).Observe(float64(rows))
}

// RecordRPC records one served RPC request.
func (r *Registry) RecordRPC(method, status string, dur time.Duration) {
	r.RPCRequestsTotal.WithLabelValues(method, status).Inc()
	r.RPCRequestDuration.WithLabelValues(method).Observe(dur.Seconds())
}
