package bench

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/procfs"
)

// DefaultSampleInterval is how often the sampler reads the target's RSS.
const DefaultSampleInterval = 100 * time.Millisecond

// stopGrace bounds how long Stop waits for the sampling goroutine to exit.
const stopGrace = time.Second

// Sampler observes the resident memory of a process from a background
// goroutine and keeps a running peak. The peak is held in an atomic: the
// goroutine is the only writer, and readers may observe it at any time.
type Sampler struct {
	proc     procfs.Proc
	interval time.Duration
	peak     atomic.Uint64 // bytes
	stop     chan struct{}
	done     chan struct{}
}

// NewSampler creates a sampler targeting the current process.
func NewSampler(interval time.Duration) (*Sampler, error) {
	proc, err := procfs.Self()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Sampler{
		proc:     proc,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins background sampling. It takes one synchronous sample first so
// the peak reflects at least the memory baseline at invocation.
func (s *Sampler) Start() {
	s.observe()
	go s.loop()
}

func (s *Sampler) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// A vanished or unreadable target ends sampling, it is not
			// an error: the peak so far stands.
			if !s.observe() {
				return
			}
		}
	}
}

// observe reads the current RSS and folds it into the running peak.
func (s *Sampler) observe() bool {
	stat, err := s.proc.Stat()
	if err != nil {
		return false
	}
	rss := uint64(stat.ResidentMemory())
	for {
		cur := s.peak.Load()
		if rss <= cur || s.peak.CompareAndSwap(cur, rss) {
			return true
		}
	}
}

// Stop signals the sampling goroutine and waits for it to quiesce, bounded
// by a grace period so callers never hang on sampler teardown. It returns
// the peak resident memory observed, in MB. Call exactly once per Start.
func (s *Sampler) Stop() float64 {
	close(s.stop)
	select {
	case <-s.done:
	case <-time.After(stopGrace):
	}
	return s.PeakMB()
}

// PeakMB returns the peak resident memory observed so far, in MB.
func (s *Sampler) PeakMB() float64 {
	return float64(s.peak.Load()) / (1 << 20)
}
