package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ItemLifecycle(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ItemStarted("chart")
	m.ItemStarted("chart")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsActive.WithLabelValues("chart")))

	m.ItemFinished("chart", nil, 10*time.Millisecond)
	m.ItemFinished("chart", errors.New("boom"), 20*time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ItemsActive.WithLabelValues("chart")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Items.WithLabelValues("chart", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Items.WithLabelValues("chart", OutcomeFailure)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ItemDuration))
}

func TestMetrics_PollAndRuns(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PollAttempt("diagram")
	m.PollAttempt("diagram")
	m.RunFinished("completed", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollAttempts.WithLabelValues("diagram")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("completed")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ItemStarted("text")
		m.ItemFinished("text", nil, time.Second)
		m.PollAttempt("text")
		m.RunFinished("completed", time.Second)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
