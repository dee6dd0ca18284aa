package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/procfs"
)

// Payload is the optional structured result a workload hands back to the
// envelope for merging into the Result.
type Payload struct {
	RowCount  int64
	DiskBytes int64
	Metadata  map[string]any
}

// Workload is a measured unit of work. It may return a Payload with counters
// to merge into the record, and an error to signal failure. A returned
// Payload is merged even on failure so partially collected workload details
// (phase timings, pending-status notes) survive into the record.
type Workload func(ctx context.Context) (*Payload, error)

// userHZ is the kernel clock tick rate used for /proc utime/stime fields.
const userHZ = 100

type cpuTimes struct {
	user   float64
	system float64
}

func readCPUTimes() (cpuTimes, error) {
	proc, err := procfs.Self()
	if err != nil {
		return cpuTimes{}, err
	}
	stat, err := proc.Stat()
	if err != nil {
		return cpuTimes{}, err
	}
	return cpuTimes{
		user:   float64(stat.UTime) / userHZ,
		system: float64(stat.STime) / userHZ,
	}, nil
}

// Measure runs fn and returns a Result capturing wall time, CPU time deltas,
// peak resident memory, and the workload's counters.
//
// The sampler's lifecycle is strictly nested inside the timed window: it is
// started before fn is invoked and stopped on every exit path, so the peak
// always covers the full workload window. A workload error or panic is
// recorded in the Result's Error field after timing and memory measurements
// are finalized; telemetry from a failed attempt is never discarded.
func Measure(ctx context.Context, name string, fn Workload) *Result {
	log := slog.With("component", "bench", "workload", name)

	cpuBefore, cpuErr := readCPUTimes()
	if cpuErr != nil {
		log.Warn("cpu baseline unavailable", "error", cpuErr)
	}

	sampler, err := NewSampler(DefaultSampleInterval)
	if err != nil {
		log.Warn("memory sampling unavailable", "error", err)
		sampler = nil
	} else {
		sampler.Start()
	}

	start := time.Now()
	payload, err := invoke(ctx, fn)
	wall := time.Since(start)

	var peakMB float64
	if sampler != nil {
		peakMB = sampler.Stop()
	}

	r := &Result{
		Name:            name,
		WallTimeSeconds: Round3(wall.Seconds()),
		PeakMemoryMB:    Round1(peakMB),
		Timestamp:       time.Now().UTC(),
		Metadata:        map[string]any{},
	}

	if cpuErr == nil {
		if cpuAfter, err := readCPUTimes(); err == nil {
			r.CPUUserSeconds = Round3(cpuAfter.user - cpuBefore.user)
			r.CPUSystemSeconds = Round3(cpuAfter.system - cpuBefore.system)
		}
	}

	if payload != nil {
		r.RowCount = payload.RowCount
		r.DiskBytes = payload.DiskBytes
		if payload.Metadata != nil {
			r.Metadata = payload.Metadata
		}
	}
	if err != nil {
		r.Error = err.Error()
		log.Error("workload failed", "error", err, "wall_seconds", r.WallTimeSeconds)
	} else {
		log.Info("workload complete",
			"wall_seconds", r.WallTimeSeconds,
			"rows", r.RowCount,
			"peak_memory_mb", r.PeakMemoryMB,
		)
	}
	return r
}

// invoke calls fn, converting a panic into an ordinary error so the envelope
// can finalize its bookkeeping before the caller observes the failure.
func invoke(ctx context.Context, fn Workload) (p *Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}
