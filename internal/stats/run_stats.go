// Package stats tracks per-run statistics for test runs and formats the
// summary printed when a run ends.
//
// Iteration timing uses a T-Digest so long randomtest runs keep a fixed
// memory footprint regardless of iteration count.
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// RunStats holds the statistics of a single test run.
//
// Thread-safe: iteration markers arrive on the supervisor's event goroutine
// while the summary may be read from anywhere.
type RunStats struct {
	Name    string
	RunID   string
	Started time.Time

	mu          sync.Mutex
	digest      *tdigest.TDigest // TDigest is not thread-safe
	samples     int
	iterations  uint64
	lastAt      time.Time
	minInterval time.Duration
	maxInterval time.Duration
}

// NewRunStats creates stats for a run started at started.
func NewRunStats(name, runID string, started time.Time) *RunStats {
	return &RunStats{
		Name:    name,
		RunID:   runID,
		Started: started,
		digest:  tdigest.NewWithCompression(100),
		lastAt:  started,
	}
}

// RecordIteration records an iteration marker seen at at and returns the
// time since the previous marker (or since the run started, for the first
// one). Markers that move backwards are counted but not timed.
func (s *RunStats) RecordIteration(count uint64, at time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.iterations = count

	if s.lastAt.IsZero() || at.Before(s.lastAt) {
		s.lastAt = at
		return 0
	}
	interval := at.Sub(s.lastAt)
	s.lastAt = at

	s.digest.Add(float64(interval.Nanoseconds()), 1)
	if s.samples == 0 || interval < s.minInterval {
		s.minInterval = interval
	}
	if interval > s.maxInterval {
		s.maxInterval = interval
	}
	s.samples++
	return interval
}

// Iterations returns the last iteration marker recorded.
func (s *RunStats) Iterations() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// Interval returns the q-quantile of iteration intervals, or 0 if none
// were recorded.
func (s *RunStats) Interval(q float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.samples == 0 {
		return 0
	}
	return time.Duration(s.digest.Quantile(q))
}

// Summary returns a snapshot with the iteration fields filled in. The
// caller adds the outcome and output counters.
func (s *RunStats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Name:            s.Name,
		RunID:           s.RunID,
		Started:         s.Started,
		Iterations:      s.iterations,
		IntervalSamples: s.samples,
		IntervalMin:     s.minInterval,
		IntervalMax:     s.maxInterval,
	}
	if s.samples > 0 {
		sum.IntervalP50 = time.Duration(s.digest.Quantile(0.50))
		sum.IntervalP95 = time.Duration(s.digest.Quantile(0.95))
		sum.IntervalP99 = time.Duration(s.digest.Quantile(0.99))
	}
	return sum
}
