package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"rentmarket/internal/property/models"
	"rentmarket/internal/rating"
	"rentmarket/pkg/platform/sentinel"
)

// InMemory keeps listings in insertion order. The write lock is the
// serialization point for votes.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[string]*models.Property
	order []string
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]*models.Property)}
}

// List returns every listing, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Property, 0, len(s.order))
	for _, id := range slices.Backward(s.order) {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) FindByIDs(_ context.Context, ids []string) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Create(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[p.ID] = p.Clone()
	s.order = append(s.order, p.ID)
	return nil
}

// Update replaces the editable fields of an existing listing. Rating and
// review count are only changed through ApplyVote.
func (s *InMemory) Update(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	next := p.Clone()
	next.Rating, next.ReviewCount = current.Rating, current.ReviewCount
	next.CreatedAt = current.CreatedAt
	s.byID[p.ID] = next
	return nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// ApplyVote reads the current score, applies fn and stores the result
// without releasing the lock in between.
func (s *InMemory) ApplyVote(_ context.Context, id string, fn func(rating.Score) rating.Score) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p.SetScore(fn(p.Score()))
	p.UpdatedAt = time.Now()
	return p.Clone(), nil
}
