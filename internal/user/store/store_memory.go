package store

import (
	"context"
	"sync"
	"time"

	"rentmarket/internal/user/models"
	"rentmarket/pkg/platform/sentinel"
)

// InMemory keeps profiles in a map guarded by a RWMutex. Email uniqueness is
// enforced the same way the Postgres unique index does.
type InMemory struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

// FindByIDs returns the profiles that exist; unknown ids are skipped.
func (s *InMemory) FindByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, taken := s.byEmail[user.Email]; taken {
		return sentinel.ErrConflict
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, id string, update models.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	update.Apply(&u, time.Now())
	s.users[id] = u
	return nil
}
