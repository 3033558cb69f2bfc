package handlers

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "handlers"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Duration of instrumented handler operations, labelled by handler,
	// operation and success.
	OperationDurationSeconds metrics.Histogram
	// Number of failed handler operations.
	OperationFailures metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		OperationDurationSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of handler operations in seconds.",
			Buckets:   stdprometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"handler", "operation", "success"}),
		OperationFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "operation_failures",
			Help:      "Number of failed handler operations.",
		}, []string{"handler", "operation"}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		OperationDurationSeconds: discard.NewHistogram(),
		OperationFailures:        discard.NewCounter(),
	}
}
