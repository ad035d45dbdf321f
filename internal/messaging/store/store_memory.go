package store

import (
	"context"
	"slices"
	"sync"

	"rentmarket/internal/messaging/models"
	"rentmarket/pkg/platform/sentinel"
)

// InMemory is an append-only message log.
type InMemory struct {
	mu  sync.RWMutex
	log []models.Message
	ids map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{ids: make(map[string]struct{})}
}

func (s *InMemory) Append(_ context.Context, m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.ids[m.ID]; dup {
		return sentinel.ErrConflict
	}
	s.ids[m.ID] = struct{}{}
	s.log = append(s.log, m)
	return nil
}

// ListByParticipant returns messages sent or received by userID ordered by
// timestamp, then append order.
func (s *InMemory) ListByParticipant(_ context.Context, userID string) ([]models.Message, error) {
	s.mu.RLock()
	out := make([]models.Message, 0)
	for _, m := range s.log {
		if m.Involves(userID) {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b models.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}
