package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/streamkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/streamkeeper/internal/client/repositories/session"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories is the CLI's local state.
type Repositories struct {
	Session session.Repository
	DB      *sql.DB
}

// Close releases the state database.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// migrateState applies the embedded SQLite schema; replaced in tests.
var migrateState = func(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("state schema: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("state schema: %w", err)
	}
	return nil
}

// InitDatabase opens the SQLite state file at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// ":memory:" is per connection, and SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)

	if err := migrateState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Session: session.NewSQLiteRepository(db),
		DB:      db,
	}, nil
}
