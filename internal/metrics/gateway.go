package metrics

import "github.com/prometheus/client_golang/prometheus"

// File-search gateway Prometheus metrics.
var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filesearch",
			Name:      "gateway_requests_total",
			Help:      "Total number of file-search gateway requests",
		},
		[]string{"operation", "status"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "filesearch",
			Name:      "gateway_request_duration_seconds",
			Help:      "File-search gateway request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	GatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filesearch",
			Name:      "gateway_errors_total",
			Help:      "Total file-search gateway errors",
		},
		[]string{"operation", "error_type"}, // "api_error" / "transport" / "decode"
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filesearch",
			Name:      "events_published_total",
			Help:      "Record lifecycle events published",
		},
		[]string{"status"},
	)
)

var gatewayMetricsRegistered bool

// RegisterGatewayMetrics registers Prometheus gateway and event metrics. Must be called once from main.
func RegisterGatewayMetrics() {
	if gatewayMetricsRegistered {
		return
	}
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
	prometheus.MustRegister(GatewayErrorsTotal)
	prometheus.MustRegister(EventsPublishedTotal)
	gatewayMetricsRegistered = true
}
