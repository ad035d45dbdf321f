//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmarket/internal/notification/models"
	"rentmarket/internal/notification/store"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/testutil/containers"
)

func TestPostgresNotificationStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	s := store.NewPostgres(pg.DB)
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, &models.Notification{ID: "n1", UserID: "ana", PropertyID: "p1", Message: "a", Timestamp: models.NewTimestamp(base)}))
	require.NoError(t, s.Create(ctx, &models.Notification{ID: "n2", UserID: "ana", Message: "b", Timestamp: models.NewTimestamp(base.Add(time.Minute))}))
	require.NoError(t, s.Create(ctx, &models.Notification{ID: "n3", UserID: "bia", Message: "c", Timestamp: models.NewTimestamp(base)}))
	assert.ErrorIs(t, s.Create(ctx, &models.Notification{ID: "n1", UserID: "x", Timestamp: models.NewTimestamp(base)}), sentinel.ErrConflict)

	list, err := s.ListByUser(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)
	assert.Equal(t, "p1", list[1].PropertyID)
	assert.Equal(t, base.UnixMilli(), list[1].Timestamp.Millis())

	assert.ErrorIs(t, s.MarkRead(ctx, "ana", "n3"), sentinel.ErrNotFound)
	require.NoError(t, s.MarkRead(ctx, "ana", "n1"))
	changed, err := s.MarkAllRead(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}
