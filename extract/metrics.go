package extract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extraction adapter.
type Metrics struct {
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
}

// NewMetrics constructs the extraction metrics and registers them on
// reg when it is non-nil. Passing the crawl registry puts everything
// behind one scrape endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	llmRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_llm_requests_total",
			Help: "Total LLM extraction calls, by outcome.",
		},
		[]string{"status"},
	)
	llmDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extract_llm_request_duration_seconds",
			Help:    "Latency of LLM extraction calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "extract_cache_hits_total",
			Help: "Total extractions answered from the response cache.",
		},
	)
	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "extract_cache_misses_total",
			Help: "Total extractions that had to call the LLM.",
		},
	)

	if reg != nil {
		reg.MustRegister(llmRequests, llmDuration, cacheHits, cacheMisses)
	}

	return &Metrics{
		LLMRequestsTotal:   llmRequests,
		LLMRequestDuration: llmDuration,
		CacheHitsTotal:     cacheHits,
		CacheMissesTotal:   cacheMisses,
	}
}

// IncLLMRequest increments the request counter for an outcome label.
func (m *Metrics) IncLLMRequest(status string) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(status).Inc()
}

// ObserveLLMDuration records the latency of one LLM call.
func (m *Metrics) ObserveLLMDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestDuration.Observe(d.Seconds())
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// IncCacheMiss increments the cache miss counter.
func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}
