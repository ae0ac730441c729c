// Package metrics defines the Prometheus instruments recorded by an
// enrichment run. All methods are safe on a nil *Metrics, which records
// nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Item outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the enrichment instruments.
type Metrics struct {
	Items        *prometheus.CounterVec
	ItemDuration *prometheus.HistogramVec
	ItemsActive  *prometheus.GaugeVec
	PollAttempts *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunDuration  prometheus.Histogram
}

// New registers the instruments on reg. Pass prometheus.DefaultRegisterer
// in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Items: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckenrich_items_total",
				Help: "Generation units dispatched, by service and outcome",
			},
			[]string{"service", "outcome"},
		),
		ItemDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deckenrich_item_duration_seconds",
				Help:    "Duration of a single generation unit in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"service"},
		),
		ItemsActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deckenrich_items_active",
				Help: "Generation units currently in flight",
			},
			[]string{"service"},
		),
		PollAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckenrich_poll_attempts_total",
				Help: "Job status checks issued, by service",
			},
			[]string{"service"},
		),
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckenrich_runs_total",
				Help: "Enrichment runs, by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deckenrich_run_duration_seconds",
				Help:    "Wall-clock duration of an enrichment run in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}
}

// ItemStarted marks a unit of service in flight.
func (m *Metrics) ItemStarted(service string) {
	if m == nil {
		return
	}
	m.ItemsActive.WithLabelValues(service).Inc()
}

// ItemFinished records a unit's outcome and duration.
func (m *Metrics) ItemFinished(service string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.ItemsActive.WithLabelValues(service).Dec()
	m.Items.WithLabelValues(service, outcome).Inc()
	m.ItemDuration.WithLabelValues(service).Observe(d.Seconds())
}

// PollAttempt counts one job status check.
func (m *Metrics) PollAttempt(service string) {
	if m == nil {
		return
	}
	m.PollAttempts.WithLabelValues(service).Inc()
}

// RunFinished records a completed or rejected run.
func (m *Metrics) RunFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}
