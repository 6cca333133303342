package metrics

import (
	"sync/atomic"
	"time"
)

// Outcome classifies a finished card lookup.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	TimedOut
	Failed
)

// LookupMetrics tracks the latency and outcomes of card lookups. It is
// safe for concurrent use.
type LookupMetrics struct {
	// Latency histograms (in milliseconds)
	LookupLatency *Histogram
	BatchLatency  *Histogram

	found    atomic.Uint64
	notFound atomic.Uint64
	timeouts atomic.Uint64
	failures atomic.Uint64
	batches  atomic.Uint64
}

// NewLookupMetrics creates a metrics collector.
func NewLookupMetrics() *LookupMetrics {
	return &LookupMetrics{
		LookupLatency: NewHistogram(DefaultSamples),
		BatchLatency:  NewHistogram(DefaultSamples / 4),
	}
}

// RecordLookup records one single-name lookup.
func (m *LookupMetrics) RecordLookup(d time.Duration, outcome Outcome) {
	m.LookupLatency.Record(d)
	switch outcome {
	case Found:
		m.found.Add(1)
	case NotFound:
		m.notFound.Add(1)
	case TimedOut:
		m.timeouts.Add(1)
	default:
		m.failures.Add(1)
	}
}

// RecordBatch records the wall time of one dispatched batch.
func (m *LookupMetrics) RecordBatch(d time.Duration) {
	m.BatchLatency.Record(d)
	m.batches.Add(1)
}

// LookupStats is a snapshot of LookupMetrics.
type LookupStats struct {
	Lookup LatencyStats `json:"lookup_latency"`
	Batch  LatencyStats `json:"batch_latency"`

	Batches  uint64 `json:"batches"`
	Found    uint64 `json:"found"`
	NotFound uint64 `json:"not_found"`
	Timeouts uint64 `json:"timeouts"`
	Failures uint64 `json:"failures"`

	SuccessRate float64 `json:"success_rate"` // percentage of lookups that returned a card
}

// LatencyStats contains statistics for a latency histogram.
type LatencyStats struct {
	Mean  float64 `json:"mean"` // milliseconds
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Snapshot returns the current statistics.
func (m *LookupMetrics) Snapshot() LookupStats {
	s := LookupStats{
		Lookup:   m.LookupLatency.Summary(),
		Batch:    m.BatchLatency.Summary(),
		Batches:  m.batches.Load(),
		Found:    m.found.Load(),
		NotFound: m.notFound.Load(),
		Timeouts: m.timeouts.Load(),
		Failures: m.failures.Load(),
	}
	if total := s.Found + s.NotFound + s.Timeouts + s.Failures; total > 0 {
		s.SuccessRate = float64(s.Found) / float64(total) * 100
	}
	return s
}

// Reset clears all metrics.
func (m *LookupMetrics) Reset() {
	m.LookupLatency.Reset()
	m.BatchLatency.Reset()
	m.found.Store(0)
	m.notFound.Store(0)
	m.timeouts.Store(0)
	m.failures.Store(0)
	m.batches.Store(0)
}
