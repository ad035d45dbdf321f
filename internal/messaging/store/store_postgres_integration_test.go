//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmarket/internal/messaging/models"
	"rentmarket/internal/messaging/store"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/testutil/containers"
)

func TestPostgresMessageStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	s := store.NewPostgres(pg.DB)
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for _, m := range []models.Message{
		{ID: "m2", FromID: "ana", ToID: "bia", PropertyID: "p1", Content: "dois", Timestamp: base.Add(time.Minute)},
		{ID: "m1a", FromID: "bia", ToID: "ana", PropertyID: "p1", Content: "um", Timestamp: base},
		{ID: "m1b", FromID: "ana", ToID: "bia", PropertyID: "p1", Content: "um b", Timestamp: base},
		{ID: "x", FromID: "bia", ToID: "caio", PropertyID: "p1", Content: "outro", Timestamp: base},
	} {
		require.NoError(t, s.Append(ctx, m))
	}
	assert.ErrorIs(t, s.Append(ctx, models.Message{ID: "m2", Timestamp: base}), sentinel.ErrConflict)

	got, err := s.ListByParticipant(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m1a", got[0].ID)
	assert.Equal(t, "m1b", got[1].ID)
	assert.Equal(t, "m2", got[2].ID)
	assert.True(t, got[2].Timestamp.Equal(base.Add(time.Minute)))
}
