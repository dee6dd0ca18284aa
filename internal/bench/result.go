// Package bench measures ingestion workloads: wall time, CPU time, peak
// resident memory, and workload-supplied counters, normalized into a single
// result record per run.
package bench

import (
	"math"
	"time"
)

// Result is the outcome of one measured workload run. It is a value object:
// constructed once by Measure, persisted, and never mutated afterwards.
// Re-running a workload produces a new Result.
type Result struct {
	Name             string         `json:"name"`
	WallTimeSeconds  float64        `json:"wall_time_seconds"`
	CPUUserSeconds   float64        `json:"cpu_user_seconds"`
	CPUSystemSeconds float64        `json:"cpu_system_seconds"`
	PeakMemoryMB     float64        `json:"peak_memory_mb"`
	DiskBytes        int64          `json:"disk_bytes"`
	RowCount         int64          `json:"row_count"`
	Error            string         `json:"error,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	Metadata         map[string]any `json:"metadata"`
}

// RowsPerSecond returns the ingestion rate, or 0 if either operand is
// non-positive.
func (r *Result) RowsPerSecond() float64 {
	if r.WallTimeSeconds > 0 && r.RowCount > 0 {
		return float64(r.RowCount) / r.WallTimeSeconds
	}
	return 0
}

// DiskMB returns the persisted size in mebibytes.
func (r *Result) DiskMB() float64 {
	return float64(r.DiskBytes) / (1 << 20)
}

// Failed reports whether the measured workload returned an error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// Round3 rounds to 3 decimal places. Reported time measurements use this
// precision so serialized records are stable across runs.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Round1 rounds to 1 decimal place. Used for memory and percentage figures.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
