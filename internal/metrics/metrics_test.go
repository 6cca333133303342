package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistogram_Summary(t *testing.T) {
	h := NewHistogram(10)
	assert.Equal(t, LatencyStats{}, h.Summary())

	for i := 1; i <= 5; i++ {
		h.Record(time.Duration(i) * 10 * time.Millisecond)
	}

	s := h.Summary()
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 30.0, s.Mean, 0.001)
	assert.InDelta(t, 30.0, s.P50, 0.001)
	assert.InDelta(t, 10.0, s.Min, 0.001)
	assert.InDelta(t, 50.0, s.Max, 0.001)
	assert.InDelta(t, 48.0, s.P95, 0.001)
}

func TestHistogram_WindowOverwritesOldest(t *testing.T) {
	h := NewHistogram(3)
	for _, ms := range []int{100, 1, 2, 3} {
		h.Record(time.Duration(ms) * time.Millisecond)
	}

	s := h.Summary()
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 3.0, s.Max, 0.001)

	h.Reset()
	assert.Equal(t, 0, h.Count())
}

func TestLookupMetrics_Snapshot(t *testing.T) {
	m := NewLookupMetrics()
	m.RecordLookup(20*time.Millisecond, Found)
	m.RecordLookup(40*time.Millisecond, Found)
	m.RecordLookup(5*time.Millisecond, NotFound)
	m.RecordLookup(15*time.Second, TimedOut)
	m.RecordBatch(15 * time.Second)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Found)
	assert.Equal(t, uint64(1), s.NotFound)
	assert.Equal(t, uint64(1), s.Timeouts)
	assert.Equal(t, uint64(0), s.Failures)
	assert.Equal(t, uint64(1), s.Batches)
	assert.Equal(t, 4, s.Lookup.Count)
	assert.InDelta(t, 50.0, s.SuccessRate, 0.001)

	m.Reset()
	assert.Equal(t, LookupStats{}, m.Snapshot())
}
