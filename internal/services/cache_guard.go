package services

import "sync"

// CacheGuard orders cache fills against invalidations inside one process.
// A reader takes a Ticket before reading the store and may only fill the
// cache while no invalidation has happened since. Writers invalidate after
// their store write commits.
type CacheGuard struct {
	mu         sync.Mutex
	generation uint64
}

func NewCacheGuard() *CacheGuard {
	return &CacheGuard{}
}

func (g *CacheGuard) Ticket() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// Fill runs fill unless an invalidation happened after ticket was taken,
// and reports whether it ran.
func (g *CacheGuard) Fill(ticket uint64, fill func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.generation != ticket {
		return false
	}
	fill()
	return true
}

func (g *CacheGuard) Invalidate(drop func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	drop()
}
