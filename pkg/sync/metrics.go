package sync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by all metrics exposed by this
// package.
const MetricsSubsystem = "reconcile"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of reconciliation cycles run.
	Cycles metrics.Counter
	// Duration of reconciliation cycles.
	CycleDurationSeconds metrics.Histogram
	// Number of ticks that were dropped because a cycle for the same
	// destination was still running.
	SkippedTicks metrics.Counter
	// Number of digests that couldn't be read, by archive.
	DigestFailures metrics.Counter
	// Number of extractions into the destination, by source and result.
	Pulls metrics.Counter
	// Number of backups made from the destination, by result.
	Pushes metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Cycles: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "cycles",
			Help:      "Number of reconciliation cycles run.",
		}, []string{"target"}),
		CycleDurationSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of reconciliation cycles.",
			Buckets:   stdprometheus.ExponentialBuckets(0.1, 2, 16),
		}, []string{"target"}),
		SkippedTicks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "skipped_ticks",
			Help:      "Ticks dropped because the previous cycle was still running.",
		}, []string{"target"}),
		DigestFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "digest_failures",
			Help:      "Number of digests that could not be read.",
		}, []string{"target", "archive"}),
		Pulls: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pulls",
			Help:      "Number of archive extractions into the destination.",
		}, []string{"target", "source", "result"}),
		Pushes: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pushes",
			Help:      "Number of backups made from the destination.",
		}, []string{"target", "result"}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Cycles:               discard.NewCounter(),
		CycleDurationSeconds: discard.NewHistogram(),
		SkippedTicks:         discard.NewCounter(),
		DigestFailures:       discard.NewCounter(),
		Pulls:                discard.NewCounter(),
		Pushes:               discard.NewCounter(),
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
