package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	// The noop collector just has to accept everything.
	m := NoopMetrics{}
	m.Counter(MetricEventsPublished, 1)
	m.Gauge(MetricOutboxBacklog, 4)
	m.Timing(MetricOperationDuration, time.Second)
}

func TestInMemoryMetrics(t *testing.T) {
	t.Run("counters accumulate", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricEventsPublished, 1)
		m.Counter(MetricEventsPublished, 1)
		m.Counter(MetricEventsPublished, 3)

		assert.Equal(t, int64(5), m.GetCounter(MetricEventsPublished))
		assert.Zero(t, m.GetCounter(MetricEventsDead))
	})

	t.Run("tags split a counter into series", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricOperationTotal, 1, T("operation", "schedule.generate"))
		m.Counter(MetricOperationTotal, 1, T("operation", "schedule.validate"))
		m.Counter(MetricOperationTotal, 1, T("operation", "schedule.generate"))

		assert.Equal(t, int64(2), m.GetCounter(MetricOperationTotal, T("operation", "schedule.generate")))
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "schedule.validate")))
		assert.Zero(t, m.GetCounter(MetricOperationTotal))
	})

	t.Run("gauges keep the last value", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Gauge(MetricOutboxBacklog, 12)
		assert.Equal(t, 12.0, m.GetGauge(MetricOutboxBacklog))

		m.Gauge(MetricOutboxBacklog, 3)
		assert.Equal(t, 3.0, m.GetGauge(MetricOutboxBacklog))
	})

	t.Run("timings keep every sample", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Timing(MetricOperationDuration, 100*time.Millisecond)
		m.Timing(MetricOperationDuration, 250*time.Millisecond)

		samples := m.GetTimings(MetricOperationDuration)
		require.Len(t, samples, 2)
		assert.Equal(t, 100*time.Millisecond, samples[0])
		assert.Equal(t, 250*time.Millisecond, samples[1])
	})

	t.Run("Reset clears everything", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricEventsPublished, 1)
		m.Gauge(MetricOutboxBacklog, 1)
		m.Timing(MetricOperationDuration, time.Second)

		m.Reset()

		assert.Zero(t, m.GetCounter(MetricEventsPublished))
		assert.Zero(t, m.GetGauge(MetricOutboxBacklog))
		assert.Empty(t, m.GetTimings(MetricOperationDuration))
	})

	t.Run("concurrent recording", func(t *testing.T) {
		m := NewInMemoryMetrics()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					m.Counter(MetricEventsPublished, 1)
					m.Timing(MetricOperationDuration, time.Millisecond)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(800), m.GetCounter(MetricEventsPublished))
		assert.Len(t, m.GetTimings(MetricOperationDuration), 800)
	})
}

func TestInMemoryMetrics_Snapshot(t *testing.T) {
	t.Run("empty collector yields an empty snapshot", func(t *testing.T) {
		snap := NewInMemoryMetrics().Snapshot()

		assert.Nil(t, snap.Counters)
		assert.Nil(t, snap.Gauges)
		assert.Nil(t, snap.Timings)
	})

	t.Run("summarizes timing series", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricAppointmentsScheduled, 7)
		m.Gauge(MetricOutboxBacklog, 2)
		m.Timing(MetricOperationDuration, 100*time.Millisecond, T("operation", "schedule.generate"))
		m.Timing(MetricOperationDuration, 300*time.Millisecond, T("operation", "schedule.generate"))

		snap := m.Snapshot()

		assert.Equal(t, int64(7), snap.Counters[MetricAppointmentsScheduled])
		assert.Equal(t, 2.0, snap.Gauges[MetricOutboxBacklog])

		summary := snap.Timings["rota.operation.duration:operation=schedule.generate"]
		assert.Equal(t, int64(2), summary.Count)
		assert.Equal(t, int64(200), summary.AvgMS)
		assert.Equal(t, int64(300), summary.MaxMS)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricEventsPublished, 1)

		snap := m.Snapshot()
		m.Counter(MetricEventsPublished, 1)

		assert.Equal(t, int64(1), snap.Counters[MetricEventsPublished])
		assert.Equal(t, int64(2), m.GetCounter(MetricEventsPublished))
	})
}

func TestMetricKey(t *testing.T) {
	tests := []struct {
		name     string
		metric   string
		tags     []Tag
		expected string
	}{
		{
			name:     "no tags",
			metric:   "rota.events.published",
			tags:     nil,
			expected: "rota.events.published",
		},
		{
			name:     "single tag",
			metric:   "rota.operation.total",
			tags:     []Tag{T("operation", "schedule.generate")},
			expected: "rota.operation.total:operation=schedule.generate",
		},
		{
			name:     "multiple tags",
			metric:   "rota.operation.total",
			tags:     []Tag{T("operation", "schedule.generate"), T("mode", "local")},
			expected: "rota.operation.total:operation=schedule.generate:mode=local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, metricKey(tt.metric, tt.tags))
		})
	}
}
