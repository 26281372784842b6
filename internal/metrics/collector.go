// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector holds every metric the service records. Construct one per
// process; pass a private registerer in tests to avoid duplicate
// registration.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	modelRequestsTotal   *prometheus.CounterVec
	modelRequestDuration *prometheus.HistogramVec
	modelTokensUsed      *prometheus.CounterVec

	analysesTotal      *prometheus.CounterVec
	analysisCacheHits  prometheus.Counter
	analysisCacheMiss  prometheus.Counter
	boardsTotal        *prometheus.CounterVec
	sceneVerdictsTotal *prometheus.CounterVec
	engineRoutedTotal  *prometheus.CounterVec
	productionsTotal   prometheus.Counter

	logger *zap.Logger
}

// NewCollector registers all metrics under the namespace. A nil
// registerer uses the process-global default.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.modelRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of model completions by call site",
		},
		[]string{"call", "model", "status"},
	)
	c.modelRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model completion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"call", "model"},
	)
	c.modelTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_used_total",
			Help:      "Total tokens consumed by model calls",
		},
		[]string{"call", "model", "type"},
	)

	c.analysesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total image analyses by outcome",
		},
		[]string{"outcome"},
	)
	c.analysisCacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_hits_total",
			Help:      "Analyses served from cache",
		},
	)
	c.analysisCacheMiss = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_misses_total",
			Help:      "Analyses that required a vision call",
		},
	)
	c.boardsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storyboards_total",
			Help:      "Storyboards created, split by generated and fallback",
		},
		[]string{"kind"},
	)
	c.sceneVerdictsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_verdicts_total",
			Help:      "Scene refinement verdicts",
		},
		[]string{"verdict"},
	)
	c.engineRoutedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_routed_total",
			Help:      "Engine routing decisions by engine and reason",
		},
		[]string{"engine", "reason"},
	)
	c.productionsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "production_requests_total",
			Help:      "Production requests submitted",
		},
	)

	c.logger.Info("metrics registered", zap.String("namespace", namespace))
	return c
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordModelRequest records one completion call.
func (c *Collector) RecordModelRequest(call, model, status string, duration time.Duration, promptTokens, completionTokens int) {
	c.modelRequestsTotal.WithLabelValues(call, model, status).Inc()
	c.modelRequestDuration.WithLabelValues(call, model).Observe(duration.Seconds())
	if promptTokens > 0 {
		c.modelTokensUsed.WithLabelValues(call, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.modelTokensUsed.WithLabelValues(call, model, "completion").Add(float64(completionTokens))
	}
}

// RecordAnalysis records one analysis outcome ("ok" or "error").
func (c *Collector) RecordAnalysis(outcome string) {
	c.analysesTotal.WithLabelValues(outcome).Inc()
}

// RecordAnalysisCache records whether an analysis came from cache.
func (c *Collector) RecordAnalysisCache(hit bool) {
	if hit {
		c.analysisCacheHits.Inc()
	} else {
		c.analysisCacheMiss.Inc()
	}
}

// RecordBoard records a created storyboard.
func (c *Collector) RecordBoard(fallback bool) {
	kind := "generated"
	if fallback {
		kind = "fallback"
	}
	c.boardsTotal.WithLabelValues(kind).Inc()
}

// RecordSceneVerdict records an approve, reject, or tweak.
func (c *Collector) RecordSceneVerdict(verdict string) {
	c.sceneVerdictsTotal.WithLabelValues(verdict).Inc()
}

// RecordRouting records one engine routing decision.
func (c *Collector) RecordRouting(engine, reason string) {
	c.engineRoutedTotal.WithLabelValues(engine, reason).Inc()
}

// RecordProduction records one submitted production request.
func (c *Collector) RecordProduction() {
	c.productionsTotal.Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
