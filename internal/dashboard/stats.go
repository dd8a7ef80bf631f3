package dashboard

import (
	"maps"
	"sync"
	"time"
)

const timeSeriesMinutes = 60

// Stats accumulates real-time statistics from evaluation events.
type Stats struct {
	mu  sync.RWMutex
	now func() time.Time

	total    uint64
	safe     uint64
	unsafe   uint64
	scoreSum uint64

	profileCounts  map[string]uint64
	degradedCounts map[string]uint64
	scoreHist      [10]uint64 // buckets: [0-10), [10-20), ..., [90-100]

	// Per-minute buckets for the last 60 minutes
	timeBuckets [timeSeriesMinutes]timeBucket
}

type timeBucket struct {
	minute time.Time // truncated to minute
	count  uint64
	unsafe uint64
}

// NewStats creates a new stats accumulator.
func NewStats() *Stats {
	return &Stats{
		now:            time.Now,
		profileCounts:  make(map[string]uint64),
		degradedCounts: make(map[string]uint64),
	}
}

// Record ingests a single evaluation event.
func (s *Stats) Record(event *FeedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if event.IsSafe {
		s.safe++
	} else {
		s.unsafe++
	}
	s.scoreSum += uint64(event.Score)

	bucket := event.Score / 10
	if bucket > 9 {
		bucket = 9
	}
	if bucket < 0 {
		bucket = 0
	}
	s.scoreHist[bucket]++

	if event.Profile != "" {
		s.profileCounts[event.Profile]++
	}
	for _, p := range event.Degraded {
		s.degradedCounts[p]++
	}

	// Time series
	minute := event.Timestamp.UTC().Truncate(time.Minute)
	idx := minute.Minute() % timeSeriesMinutes
	if !s.timeBuckets[idx].minute.Equal(minute) {
		s.timeBuckets[idx] = timeBucket{minute: minute}
	}
	s.timeBuckets[idx].count++
	if !event.IsSafe {
		s.timeBuckets[idx].unsafe++
	}
}

// Snapshot returns a point-in-time copy of the stats.
func (s *Stats) Snapshot() *StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &StatsSnapshot{
		TotalEvaluations: s.total,
		SafeCount:        s.safe,
		UnsafeCount:      s.unsafe,
		ProfileCounts:    maps.Clone(s.profileCounts),
		DegradedCounts:   maps.Clone(s.degradedCounts),
		ScoreHistogram:   s.scoreHist,
	}

	if s.total > 0 {
		snap.AvgScore = float64(s.scoreSum) / float64(s.total)
	}

	// Build time series from buckets (last 60 minutes, chronological)
	now := s.now().UTC().Truncate(time.Minute)
	cutoff := now.Add(-timeSeriesMinutes * time.Minute)
	snap.TimeSeries = make([]TimeSeriesPoint, 0, timeSeriesMinutes)
	for i := 0; i < timeSeriesMinutes; i++ {
		t := cutoff.Add(time.Duration(i+1) * time.Minute)
		b := s.timeBuckets[t.Minute()%timeSeriesMinutes]
		if b.minute.Equal(t) {
			snap.TimeSeries = append(snap.TimeSeries, TimeSeriesPoint{Timestamp: t, Count: b.count, Unsafe: b.unsafe})
		} else {
			snap.TimeSeries = append(snap.TimeSeries, TimeSeriesPoint{Timestamp: t})
		}
	}

	return snap
}
