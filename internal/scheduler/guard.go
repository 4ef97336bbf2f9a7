package scheduler

import (
	"context"
	"sync"
	"time"
)

// SlotGuard claims a named schedule slot at most once until the claim expires.
type SlotGuard interface {
	Acquire(ctx context.Context, slot string, ttl time.Duration) (bool, error)
}

// MemoryGuard is a process-local SlotGuard.
type MemoryGuard struct {
	mu    sync.Mutex
	slots map[string]time.Time
	now   func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{slots: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) Acquire(_ context.Context, slot string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, exp := range g.slots {
		if !now.Before(exp) {
			delete(g.slots, k)
		}
	}

	if _, taken := g.slots[slot]; taken {
		return false, nil
	}
	g.slots[slot] = now.Add(ttl)
	return true, nil
}
