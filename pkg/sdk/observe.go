package filesearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/filesearch/internal/domain"
	recorduc "github.com/kailas-cloud/filesearch/internal/usecase/record"
)

// Outcome labels of filesearch_sdk_operations_total.
const (
	outcomeOK              = "ok"
	outcomeNotFound        = "not_found"
	outcomeInvalid         = "invalid"
	outcomeIngestionFailed = "ingestion_failed"
	outcomeRemoteFailed    = "remote_failed"
	outcomeError           = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filesearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		// ingest and upload block on remote indexing, so buckets reach minutes
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "filesearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector, or adopts the one already registered
// under the same name so several clients can share a registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("filesearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("filesearch: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer records SDK calls. A nil observer, logger or metrics set is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// forOwner returns an observer whose log lines carry owner.
func (o *observer) forOwner(owner string) *observer {
	if o == nil || o.logger == nil {
		return o
	}
	return &observer{logger: o.logger.With("owner", owner), metrics: o.metrics}
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	outcome := outcomeOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, outcome).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("operation failed", "op", op, "outcome", outcome, "duration", dur, "error", err)
		return
	}
	o.logger.Debug("operation completed", "op", op, "duration", dur)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrNoReadyDocument):
		return outcomeNotFound
	case errors.Is(err, domain.ErrInvalidFile), errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrInvalidCursor):
		return outcomeInvalid
	case recorduc.IsIngestionFailure(err):
		return outcomeIngestionFailed
	case errors.Is(err, domain.ErrRemoteQueryFailed):
		return outcomeRemoteFailed
	default:
		return outcomeError
	}
}
