package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// JobsTotal is a gauge of jobs by status. It is registered at init;
	// no code in this module sets it.
	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kong_jobs_total",
			Help: "Current number of jobs by status",
		},
		[]string{"status"},
	)

	// FoldersTotal is a gauge of the folder count. It is registered at
	// init; no code in this module sets it.
	FoldersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kong_folders_total",
			Help: "Current number of folders",
		},
	)

	// BulkOperationDuration times driver operations including their
	// back-end calls. Observed ops: "sync_status" and "bulk_submit"
	// (batch drivers, per call) and "submit" (local driver, per job).
	BulkOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kong_bulk_operation_duration_seconds",
			Help:    "Time taken by a bulk driver operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "op"},
	)

	// DriverBackendCallsTotal counts outbound calls to a batch back-end
	// (sacct/condor_q/condor_history/Panda), one increment per bulk
	// query regardless of how many jobs it covers.
	DriverBackendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kong_driver_backend_calls_total",
			Help: "Total number of outbound batch back-end calls by driver and operation",
		},
		[]string{"driver", "op"},
	)

	// DriverBackendErrorsTotal counts back-end transport/parse failures.
	DriverBackendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kong_driver_backend_errors_total",
			Help: "Total number of failed batch back-end calls by driver and operation",
		},
		[]string{"driver", "op"},
	)

	// WaitRoundsTotal counts poll rounds a Wait loop has executed.
	WaitRoundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kong_wait_rounds_total",
			Help: "Total number of poll rounds executed by Wait loops, by driver",
		},
		[]string{"driver"},
	)
)

func init() {
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(FoldersTotal)
	prometheus.MustRegister(BulkOperationDuration)
	prometheus.MustRegister(DriverBackendCallsTotal)
	prometheus.MustRegister(DriverBackendErrorsTotal)
	prometheus.MustRegister(WaitRoundsTotal)
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
