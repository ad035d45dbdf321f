package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxNilIsNoop(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestQFallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Q(context.Background(), db))
}

func TestRunReusesEnclosingTx(t *testing.T) {
	enclosing := &sql.Tx{}
	ctx := WithTx(context.Background(), enclosing)

	var seen *sql.Tx
	err := Run(ctx, nil, func(ctx context.Context) error {
		seen, _ = From(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, enclosing, seen)
	assert.Same(t, enclosing, Q(ctx, nil))
}
