package llm

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time aggregate of LLM latency samples.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

type call struct {
	at  time.Time
	ms  int64
	err bool
}

// Stats keeps the calls of the last window, oldest first.
type Stats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

// NewStats returns Stats over a rolling window; a non-positive window means
// one hour.
func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window, now: time.Now}
}

// Record adds one call. Negative durations count as zero.
func (s *Stats) Record(durationMs int64, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	s.expire(at)
	s.calls = append(s.calls, call{at: at, ms: max(durationMs, 0), err: failed})
}

// Snapshot aggregates the calls still inside the window.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	s.expire(s.now())
	durations := make([]int64, len(s.calls))
	var snap StatsSnapshot
	for i, c := range s.calls {
		durations[i] = c.ms
		if c.err {
			snap.Errors++
		}
	}
	s.mu.Unlock()

	if len(durations) == 0 {
		return StatsSnapshot{}
	}
	slices.Sort(durations)

	var total int64
	for _, d := range durations {
		total += d
	}
	snap.Count = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(total) / float64(len(durations))
	snap.P50Ms = quantile(durations, 0.50)
	snap.P95Ms = quantile(durations, 0.95)
	snap.P99Ms = quantile(durations, 0.99)
	return snap
}

// expire drops calls older than the window. Calls are appended in time order,
// so the survivors are a suffix.
func (s *Stats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	first := sort.Search(len(s.calls), func(i int) bool { return !s.calls[i].at.Before(cutoff) })
	if first == 0 {
		return
	}
	s.calls = append(s.calls[:0], s.calls[first:]...)
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []int64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case q <= 0:
		return float64(sorted[0])
	case q >= 1:
		return float64(sorted[n-1])
	}
	whole, frac := math.Modf(q * float64(n-1))
	i := int(whole)
	if i+1 >= n {
		return float64(sorted[i])
	}
	return float64(sorted[i]) + frac*float64(sorted[i+1]-sorted[i])
}

// Measured wraps a Completer and records every call's latency in Stats.
type Measured struct {
	Completer
	Stats *Stats
}

func NewMeasured(c Completer, stats *Stats) *Measured {
	return &Measured{Completer: c, Stats: stats}
}

func (m *Measured) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := m.Completer.Complete(ctx, req)
	m.Stats.Record(time.Since(start).Milliseconds(), err != nil)
	return out, err
}
