package manager

import (
	"sync/atomic"
	"time"
)

// SourceMetrics accumulates per-source call statistics for the lifetime of
// the process. All updates are atomic, so one instance may be shared between
// the tier goroutines without locking.
type SourceMetrics struct {
	successes    atomic.Int64
	failures     atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordSuccess records one successful Find call and its latency.
func (m *SourceMetrics) RecordSuccess(latency time.Duration) {
	m.successes.Add(1)
	m.totalLatency.Add(int64(latency))
}

// RecordFailure records one failed Find call and its latency.
func (m *SourceMetrics) RecordFailure(latency time.Duration) {
	m.failures.Add(1)
	m.totalLatency.Add(int64(latency))
}

// Successes returns the cumulative number of successful calls.
func (m *SourceMetrics) Successes() int64 {
	return m.successes.Load()
}

// Failures returns the cumulative number of failed calls.
func (m *SourceMetrics) Failures() int64 {
	return m.failures.Load()
}

// TotalLatency returns the cumulative latency across all calls.
func (m *SourceMetrics) TotalLatency() time.Duration {
	return time.Duration(m.totalLatency.Load())
}

// AverageLatency returns the mean latency across all calls, or zero when no
// calls have been recorded.
func (m *SourceMetrics) AverageLatency() time.Duration {
	calls := m.successes.Load() + m.failures.Load()
	if calls == 0 {
		return 0
	}
	return time.Duration(m.totalLatency.Load() / calls)
}
