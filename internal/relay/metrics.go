package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmap_relay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsmap_relay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Upstream metrics
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsmap_relay_upstream_requests_total",
			Help: "Upstream fetches by envelope status",
		},
		[]string{"upstream", "status"},
	)

	articlesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsmap_relay_articles_served_total",
			Help: "Total number of articles returned to clients",
		},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsmap_relay_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
