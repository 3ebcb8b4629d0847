package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl loop.
type Metrics struct {
	Registry             *prometheus.Registry
	PagesProbedTotal     prometheus.Counter
	PagesExtractedTotal  prometheus.Counter
	RecordsAcceptedTotal prometheus.Counter
	RecordsDroppedTotal  *prometheus.CounterVec
	PageDuration         prometheus.Histogram
}

// NewMetrics constructs and registers all crawl metrics on a dedicated
// registry. Collaborators register their own collectors onto the same
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pagesProbed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_probed_total",
			Help: "Total end-of-results probes attempted.",
		},
	)
	pagesExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_extracted_total",
			Help: "Total pages whose extraction completed.",
		},
	)
	recordsAccepted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_records_accepted_total",
			Help: "Total records accepted into the crawl output.",
		},
	)
	recordsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_records_dropped_total",
			Help: "Total candidates rejected during filtering, by reason.",
		},
		[]string{"reason"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_page_duration_seconds",
			Help:    "Wall-clock time spent probing, extracting and filtering one page.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(pagesProbed, pagesExtracted, recordsAccepted, recordsDropped, pageDuration)

	return &Metrics{
		Registry:             registry,
		PagesProbedTotal:     pagesProbed,
		PagesExtractedTotal:  pagesExtracted,
		RecordsAcceptedTotal: recordsAccepted,
		RecordsDroppedTotal:  recordsDropped,
		PageDuration:         pageDuration,
	}
}

// IncPageProbed increments the probes counter.
func (m *Metrics) IncPageProbed() {
	if m == nil {
		return
	}
	m.PagesProbedTotal.Inc()
}

// IncPageExtracted increments the extracted-pages counter.
func (m *Metrics) IncPageExtracted() {
	if m == nil {
		return
	}
	m.PagesExtractedTotal.Inc()
}

// IncAccepted increments the accepted-records counter.
func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.RecordsAcceptedTotal.Inc()
}

// IncDropped increments the dropped-records counter for a reason label.
func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.RecordsDroppedTotal.WithLabelValues(reason).Inc()
}

// ObservePageDuration records how long one page took end to end.
func (m *Metrics) ObservePageDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}
