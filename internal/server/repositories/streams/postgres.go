package streams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const streamColumns = `id, user_id, stream_key, status, created_at, updated_at, expires_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanStream(s scanner) (*models.Stream, error) {
	st := &models.Stream{}
	var status string
	if err := s.Scan(&st.ID, &st.UserID, &st.StreamKey, &status,
		&st.CreatedAt, &st.UpdatedAt, &st.ExpiresAt); err != nil {
		return nil, err
	}
	st.Status = models.StreamStatus(status)
	return st, nil
}

func (r *PostgresRepository) one(row *sql.Row) (*models.Stream, error) {
	st, err := scanStream(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return st, nil
}

func (r *PostgresRepository) GetActiveByUser(ctx context.Context, userID string) (*models.Stream, error) {
	query := `SELECT ` + streamColumns + `
		 FROM streams
		 WHERE user_id = $1 AND status = 'active'
		 `

	return r.one(r.db.QueryRowContext(ctx, query, userID))
}

// CreateActive relies on the partial unique index over active streams: a
// concurrent insert for the same owner is skipped rather than failing the
// transaction, and reported as common.ErrDuplicate.
func (r *PostgresRepository) CreateActive(ctx context.Context, stream *models.Stream) (*models.Stream, error) {
	query :=
		`INSERT INTO streams (` + streamColumns + `)
		 VALUES ($1, $2, $3, 'active', $4, $5, $6)
		 ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING
		 RETURNING ` + streamColumns + `
		 `

	st, err := scanStream(r.db.QueryRowContext(ctx, query,
		stream.ID, stream.UserID, stream.StreamKey,
		stream.CreatedAt, stream.UpdatedAt, stream.ExpiresAt))

	switch {
	case errors.Is(err, sql.ErrNoRows), dbx.IsUniqueViolation(err):
		return nil, common.ErrDuplicate
	case err != nil:
		return nil, fmt.Errorf("db error: %w", err)
	}

	return st, nil
}

func (r *PostgresRepository) StopActive(ctx context.Context, userID string, now time.Time) (*models.Stream, error) {
	query :=
		`UPDATE streams SET status = 'stopped', updated_at = $2
		 WHERE user_id = $1 AND status = 'active'
		 RETURNING ` + streamColumns + `
		 `

	return r.one(r.db.QueryRowContext(ctx, query, userID, now))
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Stream, error) {
	query := `SELECT ` + streamColumns + `
		 FROM streams
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Stream, 0)
	for rows.Next() {
		st, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) GetByKey(ctx context.Context, streamKey string) (*models.Stream, error) {
	query := `SELECT ` + streamColumns + `
		 FROM streams
		 WHERE stream_key = $1
		 `

	return r.one(r.db.QueryRowContext(ctx, query, streamKey))
}
