package handoff

import (
	"context"
	"sync"
	"time"

	userModels "rentmarket/internal/user/models"
)

type pending struct {
	role      userModels.Role
	expiresAt time.Time
}

// MemoryStore is the single-process handoff store.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]pending
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttlOrDefault(ttl),
		now:     time.Now,
		entries: make(map[string]pending),
	}
}

func (s *MemoryStore) TTL() time.Duration { return s.ttl }

func (s *MemoryStore) Set(_ context.Context, role userModels.Role) (string, error) {
	if err := validateRole(role); err != nil {
		return "", err
	}
	token := newToken()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.entries[token] = pending{role: role, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

// Consume returns the role for token and deletes it. Expired or unknown
// tokens report ok=false.
func (s *MemoryStore) Consume(_ context.Context, token string) (userModels.Role, bool, error) {
	if token == "" {
		return "", false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, found := s.entries[token]
	if !found {
		return "", false, nil
	}
	delete(s.entries, token)
	if !s.now().Before(entry.expiresAt) {
		return "", false, nil
	}
	return entry.role, true, nil
}

func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for token, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, token)
		}
	}
}
