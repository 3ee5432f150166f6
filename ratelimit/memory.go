package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

type window struct {
	count     int
	expiresAt time.Time
}

// MemoryStore keeps counters in process. Suitable for tests and a single node.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]window),
		now:     time.Now,
	}
}

func (m *MemoryStore) Consume(_ context.Context, key string, d time.Duration) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = window{expiresAt: now.Add(d)}
		m.sweep(now)
	}
	w.count++
	m.windows[key] = w

	retryAfter := int(math.Ceil(w.expiresAt.Sub(now).Seconds()))
	return w.count, max(retryAfter, 1), nil
}

// sweep drops expired windows; called only when a new window opens.
func (m *MemoryStore) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.expiresAt) {
			delete(m.windows, k)
		}
	}
}
