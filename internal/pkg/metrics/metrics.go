package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_requests_total",
			Help: "LoST requests by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lost_request_duration_seconds",
			Help:    "Duration of LoST request handling in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"operation"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lost_errors_total",
			Help: "Protocol errors by kind.",
		},
		[]string{"kind"},
	)

	peerLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lost_peer_latency_seconds",
			Help:    "Latency of proxied peer calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"peer"},
	)
)

func ObserveRequest(operation, outcome string, durationSeconds float64) {
	requestsTotal.WithLabelValues(operation, outcome).Inc()
	requestDurationSeconds.WithLabelValues(operation).Observe(durationSeconds)
}

func IncError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

func ObservePeerLatency(peer string, durationSeconds float64) {
	peerLatencySeconds.WithLabelValues(peer).Observe(durationSeconds)
}

// Handler returns the scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
