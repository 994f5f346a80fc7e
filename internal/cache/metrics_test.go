package cache

import (
	"sync"
	"testing"
)

func TestCacheMetrics_ConcurrentRecording(t *testing.T) {
	m := NewCacheMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordHit()
				m.RecordMiss()
				m.RecordMiss()
				m.RecordMiss()
			}
		}()
	}
	wg.Wait()

	stats := m.Snapshot()
	if stats.Hits != 800 || stats.Misses != 2400 {
		t.Errorf("Unexpected counts %+v", stats)
	}
	if rate := stats.HitRate(); rate != 25 {
		t.Errorf("Expected 25%% hit rate, got %v", rate)
	}
}

func TestCacheMetrics_Reset(t *testing.T) {
	var m CacheMetrics
	m.RecordSet()
	m.RecordDelete()
	m.RecordError()

	before := m.Snapshot()
	if before.Sets != 1 || before.Deletes != 1 || before.Errors != 1 {
		t.Errorf("Unexpected counts %+v", before)
	}

	m.Reset()
	after := m.Snapshot()
	if after.Sets != 0 || after.Deletes != 0 || after.Errors != 0 {
		t.Errorf("Expected zeroed counters, got %+v", after)
	}
	if after.HitRate() != 0 {
		t.Errorf("Expected zero hit rate without lookups, got %v", after.HitRate())
	}
}
