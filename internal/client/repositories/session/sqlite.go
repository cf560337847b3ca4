package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) (*models.Session, error) {
	var (
		s       models.Session
		savedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, username, server_url, saved_at FROM session WHERE id = 1`,
	).Scan(&s.Token, &s.Username, &s.ServerURL, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.SavedAt = time.Unix(savedAt, 0).UTC()
	return &s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, token, username, server_url, saved_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			username = excluded.username,
			server_url = excluded.server_url,
			saved_at = excluded.saved_at
	`, s.Token, s.Username, s.ServerURL, s.SavedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session`)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
