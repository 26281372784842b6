package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestCollector() *Collector {
	return NewCollector("greenlight_test", prometheus.NewRegistry(), nil)
}

func TestRecordHTTPRequest(t *testing.T) {
	c := newTestCollector()

	c.RecordHTTPRequest("POST", "/api/v1/analyze", 200, 120*time.Millisecond)
	c.RecordHTTPRequest("POST", "/api/v1/analyze", 200, 80*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/v1/boards/x", 404, 5*time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(
		c.httpRequestsTotal.WithLabelValues("POST", "/api/v1/analyze", "2xx")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(
		c.httpRequestsTotal.WithLabelValues("GET", "/api/v1/boards/x", "4xx")), 0.001)
}

func TestRecordModelRequest(t *testing.T) {
	c := newTestCollector()

	c.RecordModelRequest("analysis", "gpt-4o", "ok", time.Second, 500, 200)
	c.RecordModelRequest("analysis", "gpt-4o", "error", time.Second, 0, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(
		c.modelRequestsTotal.WithLabelValues("analysis", "gpt-4o", "ok")), 0.001)
	assert.InDelta(t, 500, testutil.ToFloat64(
		c.modelTokensUsed.WithLabelValues("analysis", "gpt-4o", "prompt")), 0.001)
}

func TestRecordPipelineCounters(t *testing.T) {
	c := newTestCollector()

	c.RecordAnalysisCache(true)
	c.RecordAnalysisCache(false)
	c.RecordAnalysisCache(false)
	c.RecordBoard(false)
	c.RecordBoard(true)
	c.RecordSceneVerdict("reject")
	c.RecordRouting("kinetix", "score-based routing")
	c.RecordProduction()

	assert.InDelta(t, 1, testutil.ToFloat64(c.analysisCacheHits), 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(c.analysisCacheMiss), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.boardsTotal.WithLabelValues("fallback")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.sceneVerdictsTotal.WithLabelValues("reject")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.engineRoutedTotal.WithLabelValues("kinetix", "score-based routing")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.productionsTotal), 0.001)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "unknown", statusClass(42))
}
