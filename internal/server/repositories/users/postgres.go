// Package users holds the identity repository and its PostgreSQL implementation.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user with the id the caller assigned. A unique violation on
// username or email is reported as common.ErrDuplicate and a value wider than
// its column as common.ErrFieldTooLong.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, email, password_hash, first_name, last_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.CreatedAt).Scan(&user.CreatedAt)

	if err != nil {
		switch dbx.PgCode(err) {
		case dbx.CodeUniqueViolation:
			return nil, common.ErrDuplicate
		case dbx.CodeStringTooLong:
			return nil, common.ErrFieldTooLong
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM users WHERE username = $1 OR email = $2
		 )
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

const selectUser = `SELECT id, username, email, password_hash, first_name, last_name, created_at FROM users`

// GetByLogin matches login case-insensitively against username or email.
// Usernames are unique only as stored, so several rows can match; the
// preference is an exact username, then a username differing in case (oldest
// first), then the email.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := selectUser + `
		 WHERE lower(username) = lower($1) OR email = lower($1)
		 ORDER BY (username = $1) DESC, (lower(username) = lower($1)) DESC, created_at, id
		 LIMIT 1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, login))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := selectUser + `
		 WHERE id = $1
		 `

	user, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if dbx.PgCode(err) == dbx.CodeInvalidTextRepresent {
		return nil, common.ErrorNotFound
	}
	return user, err
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
