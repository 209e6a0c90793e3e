// Package metrics registers and exposes the platform's Prometheus
// instruments.  Components observe through the Metrics struct; the registry
// is private so collectors cannot be double-registered.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds every instrument the platform emits.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	mentionsTotal   *prometheus.CounterVec
	mentionDuration *prometheus.HistogramVec

	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter

	catalogEventsTotal *prometheus.CounterVec
	indexSyncDuration  prometheus.Histogram
	indexSyncEntries   prometheus.Gauge
}

// New builds and registers all instruments under the "rxmatch" namespace.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxmatch",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rxmatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   durationBuckets,
		}, []string{"method", "path"}),
		mentionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxmatch",
			Name:      "mentions_total",
			Help:      "Processed medicine mentions by retrieval source and risk tier.",
		}, []string{"source", "risk_tier"}),
		mentionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rxmatch",
			Name:      "mention_duration_seconds",
			Help:      "Per-mention pipeline latency by retrieval source.",
			Buckets:   durationBuckets,
		}, []string{"source"}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxmatch",
			Name:      "cache_hits_total",
			Help:      "Responses served from the precomputed cache.",
		}),
		cacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxmatch",
			Name:      "cache_misses_total",
			Help:      "Requests that missed the precomputed cache.",
		}),
		catalogEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxmatch",
			Name:      "catalog_events_total",
			Help:      "Catalog change events handled by the sync worker.",
		}, []string{"type", "status"}),
		indexSyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rxmatch",
			Name:      "index_sync_duration_seconds",
			Help:      "Full index rebuild latency.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		indexSyncEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rxmatch",
			Name:      "index_entries",
			Help:      "Catalog records in the vector index after the last rebuild.",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.mentionsTotal,
		m.mentionDuration,
		m.cacheHitsTotal,
		m.cacheMissesTotal,
		m.catalogEventsTotal,
		m.indexSyncDuration,
		m.indexSyncEntries,
	)
	return m
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveMention implements the matching pipeline's MetricsRecorder port.
func (m *Metrics) ObserveMention(source, tier string, elapsed time.Duration) {
	m.mentionsTotal.WithLabelValues(source, tier).Inc()
	m.mentionDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// CacheHit records a response served from the precomputed cache.
func (m *Metrics) CacheHit() { m.cacheHitsTotal.Inc() }

// CacheMiss records a request that bypassed the cache.
func (m *Metrics) CacheMiss() { m.cacheMissesTotal.Inc() }

// ObserveCatalogEvent records one handled catalog change event.
func (m *Metrics) ObserveCatalogEvent(eventType, status string) {
	m.catalogEventsTotal.WithLabelValues(eventType, status).Inc()
}

// ObserveIndexSync records a completed full index rebuild.
func (m *Metrics) ObserveIndexSync(entries int, elapsed time.Duration) {
	m.indexSyncDuration.Observe(elapsed.Seconds())
	m.indexSyncEntries.Set(float64(entries))
}
