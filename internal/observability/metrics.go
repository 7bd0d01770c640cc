package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notam_etl"

// Skip reasons for NoticesSkipped.
const (
	SkipMissingCoordinates = "missing_coordinates"
	SkipInvalid            = "invalid"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	MessagesConsumed   prometheus.Counter
	MessagesProduced   prometheus.Counter
	RestrictionsStored prometheus.Counter
	NoticesSkipped     *prometheus.CounterVec // labels: reason={missing_coordinates,invalid}
	DuplicateNotices   prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	CleanupRemoved prometheus.Counter
	GeometryCache  *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.RestrictionsStored,
		m.NoticesSkipped,
		m.DuplicateNotices,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.CleanupRemoved,
		m.GeometryCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total features written to the sink topic.",
		}),
		RestrictionsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restrictions_stored_total",
			Help:      "Total restrictions inserted into the airspace store.",
		}),
		NoticesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_skipped_total",
			Help:      "Notices rejected by the parser, by reason.",
		}, []string{"reason"}),
		DuplicateNotices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_notices_total",
			Help:      "Notices ignored because their identifier was already stored.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch parse-store-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		CleanupRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_removed_total",
			Help:      "Expired restrictions removed by the cleanup sweep.",
		}),
		GeometryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_cache_total",
			Help:      "Circle ring cache lookups by result.",
		}, []string{"result"}),
	}
}
