// internal/cooldown/cooldown.go
package cooldown

import (
	"context"
	"sync"
	"time"
)

// DefaultWindow is the minimum interval between accepted submissions of the same key.
const DefaultWindow = 5 * time.Second

// Limiter admits a key at most once per window.
type Limiter interface {
	// Allow records the attempt and reports whether it falls outside the window of the last accepted one.
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory is a process-local Limiter. Entries older than the window are evicted on every call,
// so the map never holds more than the keys accepted within one window.
type Memory struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemory creates an in-memory limiter. A non-positive window falls back to DefaultWindow.
func NewMemory(window time.Duration) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{window: window, now: time.Now, last: make(map[string]time.Time)}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evict(now)

	if _, ok := m.last[key]; ok {
		return false, nil
	}
	m.last[key] = now
	return true, nil
}

// Len reports how many keys are currently cooling down.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evict(m.now())
	return len(m.last)
}

func (m *Memory) evict(now time.Time) {
	for k, t := range m.last {
		if now.Sub(t) >= m.window {
			delete(m.last, k)
		}
	}
}
