// Package repomanager hands out repositories bound to a connection or a
// transaction and owns the server schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/streams"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager backs users and streams with PostgreSQL.
type PostgresRepositoryManager struct {
	schema fs.FS
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{schema: migrations.Migrations}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Streams(db dbx.DBTX) streams.Repository {
	return streams.NewPostgresRepository(db)
}

// migrateUp applies every pending migration in schema; replaced in tests.
var migrateUp = func(ctx context.Context, db *sql.DB, schema fs.FS) ([]*goose.MigrationResult, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, schema)
	if err != nil {
		return nil, err
	}
	return p.Up(ctx)
}

// RunMigrations brings the schema up to date. Already applied versions are
// skipped, so it is safe on every start.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := migrateUp(ctx, db, m.schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
