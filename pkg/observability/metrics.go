package observability

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by layoutrack.
const (
	MetricOperationTotal    = "layoutrack.operation.total"
	MetricOperationDuration = "layoutrack.operation.duration"
	MetricOperationErrors   = "layoutrack.operation.errors"

	MetricHTTPRequests        = "layoutrack.http.requests"
	MetricHTTPRequestDuration = "layoutrack.http.request_duration"

	MetricLayoutsSubmitted  = "layoutrack.layouts.submitted"
	MetricLayoutsRejected   = "layoutrack.layouts.rejected"
	MetricWeightsUpdated    = "layoutrack.weights.updated"
	MetricLayoutsClosed     = "layoutrack.layouts.closed"
	MetricTimelineBuckets   = "layoutrack.timeline.buckets"
	MetricTimelineCacheHit  = "layoutrack.timeline.cache_hit"
	MetricTimelineCacheMiss = "layoutrack.timeline.cache_miss"
	MetricCacheErrors       = "layoutrack.cache.errors"

	MetricEventsPublished = "layoutrack.events.published"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// TimingSummary aggregates the durations recorded for one series.
type TimingSummary struct {
	Count int           `json:"count"`
	Total time.Duration `json:"total_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Snapshot is a point-in-time copy of every series, keyed by
// name{tag=value,...}.
type Snapshot struct {
	Counters map[string]int64         `json:"counters"`
	Gauges   map[string]float64       `json:"gauges"`
	Timings  map[string]TimingSummary `json:"timings"`
}

// InMemoryMetrics keeps metrics in process. The HTTP server exposes its
// snapshot and tests read series back with the Get methods.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: map[string]int64{},
		gauges:   map[string]float64{},
		timings:  map[string][]time.Duration{},
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

// GetCounter returns a counter value. Tag order does not matter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

// GetGauge returns the last value set on a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[seriesKey(name, tags)]
}

// GetTimings returns every duration recorded for a series.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.timings[seriesKey(name, tags)])
}

// Snapshot copies all series.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Counters: make(map[string]int64, len(m.counters)),
		Gauges:   make(map[string]float64, len(m.gauges)),
		Timings:  make(map[string]TimingSummary, len(m.timings)),
	}
	for k, v := range m.counters {
		s.Counters[k] = v
	}
	for k, v := range m.gauges {
		s.Gauges[k] = v
	}
	for k, ds := range m.timings {
		sum := TimingSummary{Count: len(ds)}
		for _, d := range ds {
			sum.Total += d
			sum.Max = max(sum.Max, d)
		}
		s.Timings[k] = sum
	}
	return s
}

// seriesKey renders name{k=v,...} with tags sorted by key.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := slices.SortedFunc(slices.Values(tags), func(a, b Tag) int {
		return strings.Compare(a.Key, b.Key)
	})
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}
