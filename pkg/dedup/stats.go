package dedup

import (
	"math"
	"sync"
)

// Stats is a snapshot of the engine's counters. Counters grow monotonically
// for the process lifetime; rates are derived at snapshot time.
type Stats struct {
	TotalRequests     uint64  `json:"total_requests"`
	Deduplicated      uint64  `json:"deduplicated"`
	CacheHits         uint64  `json:"cache_hits"`
	CacheMisses       uint64  `json:"cache_misses"`
	HitRate           float64 `json:"hit_rate"`
	DeduplicationRate float64 `json:"deduplication_rate"`
}

// statsTracker counts requests, hits, misses and deduplicated waits.
// Fields are guarded by the tracker's own mutex so the engine can record
// from any goroutine.
type statsTracker struct {
	mu sync.Mutex

	totalRequests uint64
	deduplicated  uint64
	cacheHits     uint64
	cacheMisses   uint64
}

func (s *statsTracker) recordRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
}

func (s *statsTracker) recordHit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cacheHits++
}

func (s *statsTracker) recordMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cacheMisses++
}

func (s *statsTracker) recordDeduplicated() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deduplicated++
}

// snapshot returns the current counters with rates computed as percentages
// rounded to 2 decimal places. Rates are 0 when no requests were recorded.
func (s *statsTracker) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		TotalRequests: s.totalRequests,
		Deduplicated:  s.deduplicated,
		CacheHits:     s.cacheHits,
		CacheMisses:   s.cacheMisses,
	}

	if s.totalRequests > 0 {
		st.HitRate = roundRate(s.cacheHits, s.totalRequests)
		st.DeduplicationRate = roundRate(s.deduplicated, s.totalRequests)
	}

	return st
}

// reset zeroes all counters. Cached results and in-flight state are untouched.
func (s *statsTracker) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests = 0
	s.deduplicated = 0
	s.cacheHits = 0
	s.cacheMisses = 0
}

func roundRate(count, total uint64) float64 {
	return math.Round(float64(count)/float64(total)*100*100) / 100
}
