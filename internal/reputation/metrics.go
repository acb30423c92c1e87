package reputation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricReputationRecomputeTotal         = "reputation_recompute_total"
	MetricReputationRecomputeErrors        = "reputation_recompute_errors_total"
	MetricReputationRecomputeDuration      = "reputation_recompute_duration_seconds"
	MetricReputationLastRecomputeTimestamp = "reputation_last_recompute_timestamp"
	MetricReputationLastRecomputeUserCount = "reputation_last_recompute_user_count"
)

// Metrics contains Prometheus metrics for reputation recomputation.
// All operations are thread-safe.
type Metrics struct {
	recomputeTotal         prometheus.Counter
	recomputeErrors        prometheus.Counter
	recomputeDuration      prometheus.Histogram
	lastRecomputeTimestamp prometheus.Gauge
	lastRecomputeUserCount prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricReputationRecomputeTotal,
			Help: "Total number of reputation recomputation operations",
		}),
		recomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricReputationRecomputeErrors,
			Help: "Total number of reputation recomputation errors",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricReputationRecomputeDuration,
			Help:    "Histogram of reputation recomputation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}),
		lastRecomputeTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricReputationLastRecomputeTimestamp,
			Help: "Unix timestamp of the last reputation recomputation",
		}),
		lastRecomputeUserCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricReputationLastRecomputeUserCount,
			Help: "Number of users processed in the last reputation recomputation",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecomputeTotal increments the recompute total counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncRecomputeErrors increments the recompute errors counter.
func (m *Metrics) IncRecomputeErrors() {
	m.recomputeErrors.Inc()
}

// ObserveRecomputeDuration records a recompute duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// SetLastRecomputeTimestamp sets the last recompute timestamp gauge.
func (m *Metrics) SetLastRecomputeTimestamp(timestamp float64) {
	m.lastRecomputeTimestamp.Set(timestamp)
}

// SetLastRecomputeUserCount sets the last recompute user count gauge.
func (m *Metrics) SetLastRecomputeUserCount(count float64) {
	m.lastRecomputeUserCount.Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recomputeTotal,
		m.recomputeErrors,
		m.recomputeDuration,
		m.lastRecomputeTimestamp,
		m.lastRecomputeUserCount,
	}
}
