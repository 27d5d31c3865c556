// Package metrics exposes Prometheus instruments for the ask pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for AsksTotal.
const (
	OutcomeOK            = "ok"
	OutcomeEmpty         = "empty_question"
	OutcomeGenerateError = "generation_error"
	OutcomeQueryError    = "query_error"
)

// Metrics holds the pipeline instruments.
type Metrics struct {
	asks           *prometheus.CounterVec
	charts         *prometheus.CounterVec
	chartWarnings  *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	sinkErrors     *prometheus.CounterVec
	transcriptions *prometheus.CounterVec
}

// New creates the instruments and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinquery",
			Name:      "asks_total",
			Help:      "Questions processed, by outcome.",
		}, []string{"outcome"}),
		charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinquery",
			Name:      "charts_rendered_total",
			Help:      "Charts rendered, by kind.",
		}, []string{"kind"}),
		chartWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinquery",
			Name:      "chart_warnings_total",
			Help:      "Requested charts skipped for unmet data preconditions, by kind.",
		}, []string{"kind"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coinquery",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinquery",
			Name:      "sink_errors_total",
			Help:      "Failed writes to ask sinks, by sink.",
		}, []string{"sink"}),
		transcriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinquery",
			Name:      "transcriptions_total",
			Help:      "Audio transcriptions, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.asks, m.charts, m.chartWarnings, m.stageDuration, m.sinkErrors, m.transcriptions)
	return m
}

func (m *Metrics) Ask(outcome string) {
	if m == nil {
		return
	}
	m.asks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ChartRendered(kind string) {
	if m == nil {
		return
	}
	m.charts.WithLabelValues(kind).Inc()
}

func (m *Metrics) ChartWarning(kind string) {
	if m == nil {
		return
	}
	m.chartWarnings.WithLabelValues(kind).Inc()
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) Transcription(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.transcriptions.WithLabelValues(result).Inc()
}
