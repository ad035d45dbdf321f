package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemory is a per-process sliding-window counter. Use RedisStore when
// several replicas share a limit.
type InMemory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string][]time.Time), now: time.Now}
}

func (s *InMemory) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	hits := evict(s.windows[key], now.Add(-window))
	if len(hits) >= limit {
		s.windows[key] = hits
		return Result{Allowed: false, Limit: limit, ResetAt: hits[0].Add(window)}, nil
	}
	hits = append(hits, now)
	s.windows[key] = hits
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(hits),
		ResetAt:   hits[0].Add(window),
	}, nil
}

// evict drops timestamps at or before cutoff. hits is in ascending order.
func evict(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(hits); i++ {
		if hits[i].After(cutoff) {
			break
		}
	}
	return hits[i:]
}
