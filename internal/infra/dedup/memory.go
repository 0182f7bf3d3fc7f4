package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryGate suppresses duplicate alerts inside a sliding window. It is the
// single-process fallback used when no Redis address is configured.
type MemoryGate struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
}

func NewMemoryGate(window time.Duration) *MemoryGate {
	return &MemoryGate{
		window:   window,
		lastSeen: make(map[string]time.Time),
	}
}

func (g *MemoryGate) ShouldSuppress(_ context.Context, key string, now time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prune(now)

	seen, ok := g.lastSeen[key]
	if !ok {
		return false, nil
	}
	return now.Sub(seen) < g.window, nil
}

func (g *MemoryGate) Record(_ context.Context, key string, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSeen[key] = now
	return nil
}

// prune drops expired entries so the map stays bounded by the set of keys
// active within one window.
func (g *MemoryGate) prune(now time.Time) {
	for key, seen := range g.lastSeen {
		if now.Sub(seen) >= g.window {
			delete(g.lastSeen, key)
		}
	}
}
