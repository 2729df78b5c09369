package api

import (
	"net/http"

	"github.com/DrSkyle/kinship/pkg/netcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	sessions prometheus.Gauge
}

func newMetrics(stats func() netcache.Stats) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinship_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kinship_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kinship_sessions_active",
			Help: "Open tree sessions.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.sessions)

	if stats != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Name: "kinship_cache_entries",
				Help: "Resolved relationship sets held in the network cache.",
			}, func() float64 { return float64(stats().Entries) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "kinship_cache_lookups_hit_total",
				Help: "Network cache lookups served from memory.",
			}, func() float64 { return float64(stats().Hits) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Name: "kinship_cache_lookups_miss_total",
				Help: "Network cache lookups that required resolution.",
			}, func() float64 { return float64(stats().Misses) }),
		)
	}
	return m
}

// handler serves this server's collectors plus the default registry, which
// carries the OpenTelemetry bridge and Go runtime metrics.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{m.registry, prometheus.DefaultGatherer}, promhttp.HandlerOpts{})
}
