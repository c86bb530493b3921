package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_InitializesEveryMetric(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.QueriesTotal)
	require.NotNil(t, r.QueryDuration)
	require.NotNil(t, r.QueryRowsEmitted)
	require.NotNil(t, r.TraverseEmittedTotal)
	require.NotNil(t, r.TraverseDroppedTotal)
	require.NotNil(t, r.ProxyCrossingsTotal)
	require.NotNil(t, r.HTLExhaustedTotal)
	require.NotNil(t, r.RPCRequestsTotal)
	require.NotNil(t, r.RPCRequestDuration)
	require.NotNil(t, r.SubQueryStreamsOpen)
	require.NotNil(t, r.Gatherer())
}

func TestRecordQuery_IncrementsCounterAndObservesHistograms(t *testing.T) {
	r := NewRegistry()

	r.RecordQuery("simple", "ok", 25*time.Millisecond, 4)
	r.RecordQuery("simple", "ok", 50*time.Millisecond, 6)
	r.RecordQuery("simple", "error", 5*time.Millisecond, 0)

	counter, err := r.QueriesTotal.GetMetricWithLabelValues("simple", "ok")
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	require.Equal(t, float64(2), m.Counter.GetValue())

	errCounter, err := r.QueriesTotal.GetMetricWithLabelValues("simple", "error")
	require.NoError(t, err)
	var em dto.Metric
	require.NoError(t, errCounter.Write(&em))
	require.Equal(t, float64(1), em.Counter.GetValue())

	hist, err := r.QueryDuration.GetMetricWithLabelValues("simple")
	require.NoError(t, err)
	var hm dto.Metric
	require.NoError(t, hist.(prometheus.Metric).Write(&hm))
	require.Equal(t, uint64(3), hm.Histogram.GetSampleCount())
}

func TestRecordRPC_IncrementsCounterByMethodAndStatus(t *testing.T) {
	r := NewRegistry()

	r.RecordRPC("recur-query", "ok", 10*time.Millisecond)
	r.RecordRPC("recur-query", "ok", 15*time.Millisecond)
	r.RecordRPC("sub-query", "timeout", 3*time.Second)

	counter, err := r.RPCRequestsTotal.GetMetricWithLabelValues("recur-query", "ok")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	require.Equal(t, float64(2), m.Counter.GetValue())

	timeoutCounter, err := r.RPCRequestsTotal.GetMetricWithLabelValues("sub-query", "timeout")
	require.NoError(t, err)
	var tm dto.Metric
	require.NoError(t, timeoutCounter.Write(&tm))
	require.Equal(t, float64(1), tm.Counter.GetValue())
}

func TestProxyCrossingsTotal_LabeledByPeerURL(t *testing.T) {
	r := NewRegistry()
	r.ProxyCrossingsTotal.WithLabelValues("plasma://peer-a:9100").Inc()
	r.ProxyCrossingsTotal.WithLabelValues("plasma://peer-a:9100").Inc()
	r.ProxyCrossingsTotal.WithLabelValues("plasma://peer-b:9100").Inc()

	counter, err := r.ProxyCrossingsTotal.GetMetricWithLabelValues("plasma://peer-a:9100")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, counter.Write(&m))
	require.Equal(t, float64(2), m.Counter.GetValue())
}

func TestSubQueryStreamsOpen_IsAGauge(t *testing.T) {
	r := NewRegistry()
	r.SubQueryStreamsOpen.Inc()
	r.SubQueryStreamsOpen.Inc()
	r.SubQueryStreamsOpen.Dec()

	var m dto.Metric
	require.NoError(t, r.SubQueryStreamsOpen.Write(&m))
	require.Equal(t, float64(1), m.Gauge.GetValue())
}
