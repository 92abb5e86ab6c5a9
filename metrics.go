package uring

import (
	"math"
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the enter-latency histogram buckets in
// nanoseconds, from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics for a ring
type Metrics struct {
	// Submission path
	EnterCalls  atomic.Uint64 // io_uring_enter invocations
	EnterErrors atomic.Uint64 // io_uring_enter failures
	Submitted   atomic.Uint64 // entries the kernel accepted

	// Completion path
	Completions atomic.Uint64 // CQEs drained through NextCQE

	// Enter latency tracking
	TotalLatencyNs atomic.Uint64
	LatencySamples atomic.Uint64

	// Latency histogram: bucket[i] counts enters with latency <= LatencyBuckets[i]
	LatencyHistogram [numLatencyBuckets]atomic.Uint64

	// Ring lifecycle
	StartTime atomic.Int64 // ring creation timestamp (UnixNano)
	StopTime  atomic.Int64 // ring close timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordEnter records one io_uring_enter call
func (m *Metrics) RecordEnter(submitted int, latencyNs uint64, err error) {
	m.EnterCalls.Add(1)
	if err != nil {
		m.EnterErrors.Add(1)
	} else {
		m.Submitted.Add(uint64(submitted))
	}
	m.recordLatency(latencyNs)
}

// RecordCompletion records one drained completion
func (m *Metrics) RecordCompletion() {
	m.Completions.Add(1)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.LatencySamples.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHistogram[i].Add(1)
		}
	}
}

// Stop marks the ring as closed
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	EnterCalls  uint64
	EnterErrors uint64
	Submitted   uint64
	Completions uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	// Latency percentiles (in nanoseconds)
	LatencyP50Ns uint64
	LatencyP99Ns uint64

	// Histogram bucket counts (cumulative)
	LatencyHistogram [numLatencyBuckets]uint64

	EnterRate float64 // enter calls per second
	ErrorRate float64 // percentage of failed enters
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		EnterCalls:  m.EnterCalls.Load(),
		EnterErrors: m.EnterErrors.Load(),
		Submitted:   m.Submitted.Load(),
		Completions: m.Completions.Load(),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	samples := m.LatencySamples.Load()
	if samples > 0 {
		snap.AvgLatencyNs = totalLatencyNs / samples
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		snap.EnterRate = float64(snap.EnterCalls) / (float64(snap.UptimeNs) / 1e9)
	}
	if snap.EnterCalls > 0 {
		snap.ErrorRate = float64(snap.EnterErrors) / float64(snap.EnterCalls) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHistogram[i].Load()
	}

	if samples > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
	}

	return snap
}

// calculatePercentile returns the upper bound of the first histogram
// bucket containing the requested percentile. Resolution is bounded by
// the bucket spacing.
func (m *Metrics) calculatePercentile(p float64) uint64 {
	samples := m.LatencySamples.Load()
	if samples == 0 {
		return 0
	}

	target := uint64(math.Ceil(float64(samples) * p))
	if target == 0 {
		target = 1
	}

	for i := 0; i < numLatencyBuckets; i++ {
		if m.LatencyHistogram[i].Load() >= target {
			return LatencyBuckets[i]
		}
	}
	return LatencyBuckets[numLatencyBuckets-1]
}
