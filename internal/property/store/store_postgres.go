package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rentmarket/internal/platform/postgres"
	"rentmarket/internal/property/models"
	"rentmarket/internal/rating"
	"rentmarket/pkg/platform/sentinel"
	"rentmarket/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const propertyColumns = `id, owner_id, title, description, location, price, bedrooms, bathrooms, area,
	status, is_occupied, rating, review_count, image_urls, created_at, updated_at`

func (s *PostgresStore) List(ctx context.Context) ([]*models.Property, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Property, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []string) ([]*models.Property, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ANY($1::text[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find properties by ids: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Property) error {
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		INSERT INTO properties (id, owner_id, title, description, location, price, bedrooms, bathrooms, area,
			status, is_occupied, rating, review_count, image_urls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.OwnerID, p.Title, p.Description, p.Location, p.Price, p.Bedrooms, p.Bathrooms, p.Area,
		string(p.Status), p.IsOccupied, p.Rating, p.ReviewCount, pq.Array(p.ImageURLs), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Property) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `
		UPDATE properties SET title = $2, description = $3, location = $4, price = $5, bedrooms = $6,
			bathrooms = $7, area = $8, status = $9, is_occupied = $10, image_urls = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Location, p.Price, p.Bedrooms, p.Bathrooms, p.Area,
		string(p.Status), p.IsOccupied, pq.Array(p.ImageURLs), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return requireRow(res)
}

// ApplyVote locks the row with SELECT ... FOR UPDATE so concurrent votes on
// one listing apply one after another.
func (s *PostgresStore) ApplyVote(ctx context.Context, id string, fn func(rating.Score) rating.Score) (*models.Property, error) {
	var out *models.Property
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.Q(ctx, s.db)
		var current rating.Score
		err := q.QueryRowContext(ctx,
			`SELECT rating, review_count FROM properties WHERE id = $1 FOR UPDATE`, id).
			Scan(&current.Rating, &current.Count)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock property: %w", err)
		}

		next := fn(current)
		if _, err := q.ExecContext(ctx,
			`UPDATE properties SET rating = $2, review_count = $3, updated_at = $4 WHERE id = $1`,
			id, next.Rating, next.Count, time.Now()); err != nil {
			return fmt.Errorf("store vote: %w", err)
		}

		out, err = s.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var p models.Property
	var status string
	var images pq.StringArray
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Location, &p.Price, &p.Bedrooms,
		&p.Bathrooms, &p.Area, &status, &p.IsOccupied, &p.Rating, &p.ReviewCount, &images,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	p.ImageURLs = []string(images)
	return &p, nil
}

func collect(rows *sql.Rows) ([]*models.Property, error) {
	defer rows.Close()
	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
