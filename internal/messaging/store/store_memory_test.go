package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmarket/internal/messaging/models"
	"rentmarket/pkg/platform/sentinel"
)

func TestListByParticipantOrdersByTimestampThenAppend(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, m := range []models.Message{
		{ID: "late", FromID: "ana", ToID: "bia", Timestamp: base.Add(2 * time.Second)},
		{ID: "tie-1", FromID: "bia", ToID: "ana", Timestamp: base},
		{ID: "other", FromID: "bia", ToID: "caio", Timestamp: base},
		{ID: "tie-2", FromID: "ana", ToID: "caio", Timestamp: base},
	} {
		require.NoError(t, s.Append(ctx, m))
	}

	got, err := s.ListByParticipant(ctx, "ana")
	require.NoError(t, err)
	ids := []string{}
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"tie-1", "tie-2", "late"}, ids)

	assert.ErrorIs(t, s.Append(ctx, models.Message{ID: "late"}), sentinel.ErrConflict)
}
