package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
	ttl   time.Duration
}

// MemoryStore keeps fixed windows in process memory. A window starts on the
// first hit and resets once its TTL has elapsed.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: map[string]*window{},
		now:     time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Hit(_ context.Context, key string, tiers []Tier) ([]Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]Window, len(tiers))

	for i, tier := range tiers {
		id := tier.Name + ":" + key
		w, ok := s.windows[id]
		if !ok || now.Sub(w.start) >= tier.TTL {
			w = &window{start: now, ttl: tier.TTL}
			s.windows[id] = w
		}
		w.count++

		out[i] = Window{Count: w.count, ResetIn: w.start.Add(tier.TTL).Sub(now)}
	}

	return out, nil
}

// Sweep drops expired windows and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, w := range s.windows {
		if now.Sub(w.start) >= w.ttl {
			delete(s.windows, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
