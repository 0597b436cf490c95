package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torrentfront",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "torrentfront",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path"})

	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torrentfront",
		Name:      "upstream_requests_total",
		Help:      "Requests to upstream services by service, operation and result.",
	}, []string{"service", "op", "status"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "torrentfront",
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"service", "op"})

	FallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "torrentfront",
		Name:      "directory_fallbacks_total",
		Help:      "Directory reads served from seed data because the index failed.",
	}, []string{"op"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "torrentfront",
		Name:      "tmdb_cache_hits_total",
		Help:      "Total number of metadata cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "torrentfront",
		Name:      "tmdb_cache_misses_total",
		Help:      "Total number of metadata cache misses.",
	})

	FeedClients = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "torrentfront",
		Name:      "feed_clients",
		Help:      "Connected event feed clients.",
	}, []string{"transport"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		FallbacksTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		FeedClients,
	)
}
