package store

import (
	"context"
	"database/sql"
	"fmt"

	"rentmarket/internal/messaging/models"
	"rentmarket/internal/platform/postgres"
	"rentmarket/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, m models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_id, to_id, property_id, content, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.FromID, m.ToID, m.PropertyID, m.Content, m.Timestamp,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByParticipant(ctx context.Context, userID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_id, to_id, property_id, content, sent_at
		FROM messages
		WHERE from_id = $1 OR to_id = $1
		ORDER BY sent_at ASC, seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FromID, &m.ToID, &m.PropertyID, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
