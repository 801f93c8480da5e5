package chain

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is a subsystem shared by every metric exposed by this
// package.
const MetricsSubsystem = "chainsync"

// Metrics contains metrics exposed by the chain synchronizer and the
// unprocessed-elements tracker.
type Metrics struct {
	// UnprocessedBytes is the current sum of bytes handed to the
	// downstream pipeline but not yet completed.
	UnprocessedBytes metrics.Gauge
	// Dirty is 1 when the unprocessed elements tracker is refusing new
	// admissions, 0 otherwise.
	Dirty metrics.Gauge
	// PendingSync is 1 when a sync round is in progress, 0 otherwise.
	PendingSync metrics.Gauge

	// SyncRounds counts completed sync rounds, by result.
	SyncRounds metrics.Counter
	// BlocksPulled counts blocks admitted to the downstream pipeline.
	BlocksPulled metrics.Counter
	// BlockPullRequests counts individual blocksFrom requests issued to
	// peers.
	BlockPullRequests metrics.Counter
}

// PrometheusMetrics returns Metrics backed by the Prometheus client library.
// Optionally, labels can be provided along with their values ("peer", "x").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		UnprocessedBytes: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "unprocessed_bytes",
			Help:      "Bytes of block ranges handed to the pipeline but not yet completed.",
		}, labels).With(labelsAndValues...),
		Dirty: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "dirty",
			Help:      "1 if new range admissions are refused pending quiescence, else 0.",
		}, labels).With(labelsAndValues...),
		PendingSync: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_sync",
			Help:      "1 if a sync round is currently in progress, else 0.",
		}, labels).With(labelsAndValues...),
		SyncRounds: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sync_rounds_total",
			Help:      "Number of completed sync rounds, labeled by result.",
		}, append(labels, "result")),
		BlocksPulled: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "blocks_pulled_total",
			Help:      "Number of blocks admitted to the downstream pipeline.",
		}, labels).With(labelsAndValues...),
		BlockPullRequests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "block_pull_requests_total",
			Help:      "Number of blocksFrom requests issued to peers.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns Metrics that discard everything, for use when
// instrumentation is disabled or in tests.
func NopMetrics() *Metrics {
	return &Metrics{
		UnprocessedBytes:  discard.NewGauge(),
		Dirty:             discard.NewGauge(),
		PendingSync:       discard.NewGauge(),
		SyncRounds:        discard.NewCounter(),
		BlocksPulled:      discard.NewCounter(),
		BlockPullRequests: discard.NewCounter(),
	}
}
