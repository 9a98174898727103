package monitor

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// SemaphoreLoadMonitor implements LoadMonitor using a semaphore for
// concurrency control. It tracks active runs by monitoring semaphore
// acquisition/release.
type SemaphoreLoadMonitor struct {
	sem       *semaphore.Weighted
	maxWeight int64
	activeCnt atomic.Int64
}

// NewSemaphoreLoadMonitor creates a new semaphore-based load monitor.
// maxConcurrency is the maximum number of concurrent generation runs; a
// single model session serves one run, so this is usually 1.
func NewSemaphoreLoadMonitor(maxConcurrency int64) *SemaphoreLoadMonitor {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	return &SemaphoreLoadMonitor{
		sem:       semaphore.NewWeighted(maxConcurrency),
		maxWeight: maxConcurrency,
	}
}

// GetMetrics returns current load statistics
func (m *SemaphoreLoadMonitor) GetMetrics() LoadMetrics {
	active := m.activeCnt.Load()
	loadPct := 0.0
	if m.maxWeight > 0 {
		loadPct = float64(active) / float64(m.maxWeight) * 100.0
	}

	return LoadMetrics{
		ActiveRuns:     active,
		MaxRuns:        m.maxWeight,
		LoadPercentage: loadPct,
	}
}

// CanAcceptRun returns true if a new run can start. It uses TryAcquire to
// check without blocking.
func (m *SemaphoreLoadMonitor) CanAcceptRun() bool {
	if m.sem.TryAcquire(1) {
		// Immediately release since we're just checking
		m.sem.Release(1)
		return true
	}
	return false
}

// TryAcquire attempts to acquire a run slot. Returns true if successful.
// The caller MUST call Release() when the run completes.
func (m *SemaphoreLoadMonitor) TryAcquire() bool {
	if m.sem.TryAcquire(1) {
		m.activeCnt.Add(1)
		return true
	}
	return false
}

// Release releases a run slot, allowing another run to be acquired
func (m *SemaphoreLoadMonitor) Release() {
	m.activeCnt.Add(-1)
	m.sem.Release(1)
}

var _ LoadMonitor = (*SemaphoreLoadMonitor)(nil)
