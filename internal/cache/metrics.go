package cache

import (
	"sync/atomic"
	"time"
)

// CacheStats is a point-in-time copy of CacheMetrics.
type CacheStats struct {
	Hits    int64     `json:"hits"`
	Misses  int64     `json:"misses"`
	Errors  int64     `json:"errors"`
	Sets    int64     `json:"sets"`
	Deletes int64     `json:"deletes"`
	Since   time.Time `json:"since"`
}

// HitRate is a percentage in [0, 100].
func (s CacheStats) HitRate() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups) * 100
}

// CacheMetrics counts cache traffic. The zero value is ready to use.
type CacheMetrics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	since   atomic.Int64
}

func NewCacheMetrics() *CacheMetrics {
	m := &CacheMetrics{}
	m.since.Store(time.Now().UnixNano())
	return m
}

func (m *CacheMetrics) RecordHit()    { m.hits.Add(1) }
func (m *CacheMetrics) RecordMiss()   { m.misses.Add(1) }
func (m *CacheMetrics) RecordError()  { m.errors.Add(1) }
func (m *CacheMetrics) RecordSet()    { m.sets.Add(1) }
func (m *CacheMetrics) RecordDelete() { m.deletes.Add(1) }

func (m *CacheMetrics) Snapshot() CacheStats {
	return CacheStats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Errors:  m.errors.Load(),
		Sets:    m.sets.Load(),
		Deletes: m.deletes.Load(),
		Since:   time.Unix(0, m.since.Load()).UTC(),
	}
}

// Reset zeroes the counters and restarts the window.
func (m *CacheMetrics) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.errors.Store(0)
	m.sets.Store(0)
	m.deletes.Store(0)
	m.since.Store(time.Now().UnixNano())
}
