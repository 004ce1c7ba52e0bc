package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "filesearch",
			Name:      "ingestions_total",
			Help:      "Total number of ingestion attempts by outcome",
		},
		[]string{"outcome"}, // "ready" / "failed" / "timeout" / "cancelled"
	)

	IngestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "filesearch",
			Name:      "ingestion_duration_seconds",
			Help:      "Ingestion duration from UPLOADING to a terminal status",
			Buckets:   []float64{1, 3, 6, 15, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	IngestionPollChecks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "filesearch",
			Name:      "ingestion_poll_checks",
			Help:      "Number of operation status checks per ingestion",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	IngestionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "filesearch",
			Name:      "ingestions_in_flight",
			Help:      "Number of ingestions currently running",
		},
	)
)

var ingestionMetricsRegistered bool

// RegisterIngestionMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestionMetrics() {
	if ingestionMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestionsTotal)
	prometheus.MustRegister(IngestionDuration)
	prometheus.MustRegister(IngestionPollChecks)
	prometheus.MustRegister(IngestionsInFlight)
	ingestionMetricsRegistered = true
}
