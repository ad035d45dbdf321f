package store

import (
	"context"
	"slices"
	"sync"

	"rentmarket/internal/notification/models"
	"rentmarket/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	byUser map[string][]*models.Notification
	ids    map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		byUser: make(map[string][]*models.Notification),
		ids:    make(map[string]struct{}),
	}
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.ids[n.ID]; dup {
		return sentinel.ErrConflict
	}
	s.ids[n.ID] = struct{}{}
	cp := *n
	s.byUser[n.UserID] = append(s.byUser[n.UserID], &cp)
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (s *InMemory) ListByUser(_ context.Context, userID string) ([]*models.Notification, error) {
	s.mu.RLock()
	list := s.byUser[userID]
	out := make([]*models.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		cp := *list[i]
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b *models.Notification) int {
		return b.Timestamp.Compare(a.Timestamp.Time)
	})
	return out, nil
}

// MarkRead flags one of userID's notifications as read. Notifications of
// other users are reported as not found.
func (s *InMemory) MarkRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.byUser[userID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// MarkAllRead returns how many notifications changed.
func (s *InMemory) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, n := range s.byUser[userID] {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}
