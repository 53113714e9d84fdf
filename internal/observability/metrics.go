// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scheduler metrics
	CyclesTotal         *prometheus.CounterVec
	InstancesChecked    prometheus.Counter
	InstanceCheckErrors *prometheus.CounterVec
	CycleDuration       prometheus.Histogram

	// Rule metrics
	SnapshotsRecorded    prometheus.Counter
	ViolationsRecorded   *prometheus.CounterVec
	ViolationsSuppressed *prometheus.CounterVec
	BaselineAnomalies    *prometheus.CounterVec

	// Bridge metrics
	BridgeCallLatency *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
	ActiveInstances     prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "prop_risk_monitor"
	}

	return &Metrics{
		// Scheduler metrics
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Total number of poll cycles by status",
		}, []string{"status"}),
		InstancesChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "instances_checked_total",
			Help:      "Total number of per-instance rule checks completed",
		}),
		InstanceCheckErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "instance_check_errors_total",
			Help:      "Total number of failed per-instance rule checks by error type",
		}, []string{"error_type"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Poll cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		// Rule metrics
		SnapshotsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "snapshots_recorded_total",
			Help:      "Total number of equity snapshots appended",
		}),
		ViolationsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "violations_recorded_total",
			Help:      "Total number of violations persisted by rule and severity",
		}, []string{"rule", "severity"}),
		ViolationsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "violations_suppressed_total",
			Help:      "Total number of violations suppressed by the dedup window",
		}, []string{"rule", "severity"}),
		BaselineAnomalies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "baseline_anomalies_total",
			Help:      "Total number of non-positive baselines that skipped a rule",
		}, []string{"rule"}),

		// Bridge metrics
		BridgeCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mt5",
			Name:      "bridge_call_latency_seconds",
			Help:      "MT5 bridge call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		// Health metrics
		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "last_successful_cycle_timestamp_seconds",
			Help:      "Unix timestamp of the last cycle that listed instances successfully",
		}),
		ActiveInstances: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "active_instances",
			Help:      "Number of active instances seen in the last cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a completed poll cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordInstanceChecked increments the per-instance check counter.
func RecordInstanceChecked() {
	DefaultMetrics.InstancesChecked.Inc()
}

// RecordCheckError records a failed per-instance check.
func RecordCheckError(errorType string) {
	DefaultMetrics.InstanceCheckErrors.WithLabelValues(errorType).Inc()
}

// RecordSnapshot increments the equity snapshot counter.
func RecordSnapshot() {
	DefaultMetrics.SnapshotsRecorded.Inc()
}

// RecordViolation records a persisted violation.
func RecordViolation(rule, severity string) {
	DefaultMetrics.ViolationsRecorded.WithLabelValues(rule, severity).Inc()
}

// RecordViolationSuppressed records a violation suppressed by the dedup window.
func RecordViolationSuppressed(rule, severity string) {
	DefaultMetrics.ViolationsSuppressed.WithLabelValues(rule, severity).Inc()
}

// RecordBaselineAnomaly records a rule skipped due to a non-positive baseline.
func RecordBaselineAnomaly(rule string) {
	DefaultMetrics.BaselineAnomalies.WithLabelValues(rule).Inc()
}

// RecordBridgeLatency records an MT5 bridge call latency.
func RecordBridgeLatency(operation string, seconds float64) {
	DefaultMetrics.BridgeCallLatency.WithLabelValues(operation).Observe(seconds)
}

// UpdateLastSuccessfulCycle sets the last successful cycle timestamp.
func UpdateLastSuccessfulCycle(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulCycle.Set(unixSeconds)
}

// UpdateActiveInstances sets the active instance gauge.
func UpdateActiveInstances(n int) {
	DefaultMetrics.ActiveInstances.Set(float64(n))
}
