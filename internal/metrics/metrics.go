// Package metrics holds the Prometheus collectors the service exports on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	CatalogRequests *prometheus.CounterVec
	ActivityEvents  *prometheus.CounterVec
	FeedFollowing   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "playtrack_http_requests_total", Help: "HTTP requests by route and status"},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playtrack_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CatalogRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "playtrack_catalog_requests_total", Help: "Game catalog calls by provider and outcome"},
			[]string{"provider", "outcome"},
		),
		ActivityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "playtrack_activity_events_total", Help: "Activity ledger appends by kind"},
			[]string{"kind"},
		),
		FeedFollowing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "playtrack_feed_following_size",
			Help:    "Size of the following set resolved per feed read",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPDuration, m.CatalogRequests, m.ActivityEvents, m.FeedFollowing,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CatalogRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.CatalogRequests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ActivityAppended(kind string) {
	if m == nil {
		return
	}
	m.ActivityEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) FeedResolved(following int) {
	if m == nil {
		return
	}
	m.FeedFollowing.Observe(float64(following))
}
