package monitor

// LoadMetrics represents current load statistics
type LoadMetrics struct {
	// ActiveRuns is the number of generation runs currently in flight
	ActiveRuns int64
	// MaxRuns is the maximum number of concurrent runs allowed
	MaxRuns int64
	// LoadPercentage is the current load as a percentage (0-100)
	LoadPercentage float64
}

// LoadMonitor guards access to the inference resources. The model session
// and feature extractor hold native state scoped to one run at a time, so
// every generation must acquire a slot before touching them.
type LoadMonitor interface {
	// GetMetrics returns current load statistics
	GetMetrics() LoadMetrics

	// CanAcceptRun returns true if a new generation run can start
	CanAcceptRun() bool

	// TryAcquire attempts to acquire a run slot. Returns true if successful.
	// The caller MUST call Release() when the run completes.
	TryAcquire() bool

	// Release releases a run slot, allowing another run to be acquired
	Release()
}
