package observability

import (
	"sync"
	"time"
)

// Metrics records application metrics. The in-memory implementation
// backs the /metrics endpoint; NoopMetrics turns recording off.
type Metrics interface {
	// Counter adds value to a monotonic counter.
	Counter(name string, value int64, tags ...Tag)

	// Gauge sets a gauge to the given value.
	Gauge(name string, value float64, tags ...Tag)

	// Timing records one duration sample.
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric, e.g. T("operation", "schedule.generate").
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(name string, value int64, tags ...Tag)           {}
func (NoopMetrics) Gauge(name string, value float64, tags ...Tag)           {}
func (NoopMetrics) Timing(name string, duration time.Duration, tags ...Tag) {}

// InMemoryMetrics accumulates metrics in process memory. rota has no
// external metrics backend; the API server and worker expose a snapshot
// of this collector instead.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey(name, tags)] = value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricKey(name, tags)
	m.timings[key] = append(m.timings[key], duration)
}

// GetCounter returns a counter's current value.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[metricKey(name, tags)]
}

// GetGauge returns a gauge's current value.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[metricKey(name, tags)]
}

// GetTimings returns every sample recorded under the name.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timings[metricKey(name, tags)]
}

// Reset clears the collector.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timings = make(map[string][]time.Duration)
}

// TimingSummary condenses a timing series for the snapshot.
type TimingSummary struct {
	Count int64 `json:"count"`
	AvgMS int64 `json:"avg_ms"`
	MaxMS int64 `json:"max_ms"`
}

// MetricsSnapshot is a point-in-time copy of the collector, shaped for
// JSON serving.
type MetricsSnapshot struct {
	Counters map[string]int64         `json:"counters,omitempty"`
	Gauges   map[string]float64       `json:"gauges,omitempty"`
	Timings  map[string]TimingSummary `json:"timings,omitempty"`
}

// Snapshot summarizes everything recorded so far. Timing series are
// reduced to count, average and max.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{}
	if len(m.counters) > 0 {
		snap.Counters = make(map[string]int64, len(m.counters))
		for k, v := range m.counters {
			snap.Counters[k] = v
		}
	}
	if len(m.gauges) > 0 {
		snap.Gauges = make(map[string]float64, len(m.gauges))
		for k, v := range m.gauges {
			snap.Gauges[k] = v
		}
	}
	if len(m.timings) > 0 {
		snap.Timings = make(map[string]TimingSummary, len(m.timings))
		for k, samples := range m.timings {
			var total, peak time.Duration
			for _, d := range samples {
				total += d
				if d > peak {
					peak = d
				}
			}
			snap.Timings[k] = TimingSummary{
				Count: int64(len(samples)),
				AvgMS: (total / time.Duration(len(samples))).Milliseconds(),
				MaxMS: peak.Milliseconds(),
			}
		}
	}
	return snap
}

// metricKey folds the tags into the map key so differently-labeled
// series stay separate.
func metricKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	key := name
	for _, t := range tags {
		key += ":" + t.Key + "=" + t.Value
	}
	return key
}

// Metric names recorded across rota.
const (
	// Command timings, tagged with operation.
	MetricOperationTotal    = "rota.operation.total"
	MetricOperationDuration = "rota.operation.duration"
	MetricOperationErrors   = "rota.operation.errors"

	// Scheduling outcomes.
	MetricAppointmentsScheduled = "rota.appointments.scheduled"
	MetricAppointmentsFailed    = "rota.appointments.failed"
	MetricAppointmentsFlagged   = "rota.appointments.flagged"
	MetricAppointmentsRestored  = "rota.appointments.restored"

	// Travel time lookups.
	MetricTravelCacheHits   = "rota.travel.cache_hits"
	MetricTravelCacheMisses = "rota.travel.cache_misses"
	MetricTravelFallbacks   = "rota.travel.fallbacks"

	// Outbox relay.
	MetricEventsPublished = "rota.events.published"
	MetricEventsDead      = "rota.events.dead_lettered"
	MetricOutboxBacklog   = "rota.outbox.backlog"

	// Worker-side consumption.
	MetricEventsConsumed = "rota.events.consumed"
	MetricEventsDropped  = "rota.events.dropped"
)
