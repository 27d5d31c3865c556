package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Ask(OutcomeOK)
		m.ChartRendered("line")
		m.ChartWarning("bar")
		m.ObserveStage("execute", time.Now())
		m.SinkError("redis")
		m.Transcription(true)
	})
}

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Ask(OutcomeOK)
	m.Ask(OutcomeOK)
	m.Ask(OutcomeQueryError)
	m.ChartRendered("pie")
	m.ObserveStage("generate", time.Now().Add(-time.Second))

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				for _, l := range metric.GetLabel() {
					found[f.GetName()+"/"+l.GetValue()] = metric.GetCounter().GetValue()
				}
			case metric.GetHistogram() != nil:
				found[f.GetName()] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, found["coinquery_asks_total/ok"])
	assert.Equal(t, 1.0, found["coinquery_asks_total/query_error"])
	assert.Equal(t, 1.0, found["coinquery_charts_rendered_total/pie"])
	assert.Equal(t, 1.0, found["coinquery_stage_duration_seconds"])
}
