// Package telemetry exposes Prometheus metrics for completion calls and batch
// execution.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Completion outcomes recorded by RecordResult.
const (
	OutcomeSuccess  = "success"
	OutcomeFiltered = "filtered"
	OutcomeFailure  = "failure"
)

// Metrics holds all Prometheus metrics for the harness. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	AttemptsTotal      *prometheus.CounterVec
	ResultsTotal       *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	BatchTasksTotal    *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmbench_completion_attempts_total",
			Help: "HTTP attempts made against completion endpoints, by response status.",
		}, []string{"model", "status"}),

		ResultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmbench_completion_results_total",
			Help: "Logical completion requests, by outcome.",
		}, []string{"model", "outcome"}),

		CompletionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llmbench_completion_duration_seconds",
			Help:    "Wall time of a logical completion request including retries.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"model"}),

		BatchTasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llmbench_batch_tasks_total",
			Help: "Batch tasks finished, by result.",
		}, []string{"batch", "result"}),
	}
}

// RecordAttempt counts one HTTP attempt. A zero status means the attempt
// failed before a response was received.
func (m *Metrics) RecordAttempt(model string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.AttemptsTotal.WithLabelValues(model, label).Inc()
}

// RecordResult counts a finished logical request and observes its duration.
func (m *Metrics) RecordResult(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ResultsTotal.WithLabelValues(model, outcome).Inc()
	m.CompletionDuration.WithLabelValues(model).Observe(d.Seconds())
}

// RecordTask counts a finished batch task.
func (m *Metrics) RecordTask(batch string, err error) {
	if m == nil {
		return
	}
	result := "succeeded"
	if err != nil {
		result = "failed"
	}
	m.BatchTasksTotal.WithLabelValues(batch, result).Inc()
}
