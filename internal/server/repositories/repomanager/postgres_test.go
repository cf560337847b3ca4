package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/streamkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/streams"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubMigrateUp(t *testing.T, fn func(ctx context.Context, db *sql.DB, schema fs.FS) ([]*goose.MigrationResult, error)) {
	t.Helper()
	orig := migrateUp
	migrateUp = fn
	t.Cleanup(func() { migrateUp = orig })
}

func TestPostgresRepositoryManager_Repositories(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var m RepositoryManager = NewPostgresRepositoryManager()

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &streams.PostgresRepository{}, m.Streams(db))
}

func TestRunMigrations(t *testing.T) {
	tests := []struct {
		name    string
		upErr   error
		wantErr string
	}{
		{name: "applied"},
		{name: "provider failure", upErr: errors.New("relation locked"), wantErr: "migrate: relation locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			var gotSchema fs.FS
			stubMigrateUp(t, func(ctx context.Context, got *sql.DB, schema fs.FS) ([]*goose.MigrationResult, error) {
				assert.Same(t, db, got)
				gotSchema = schema
				return nil, tt.upErr
			})

			err = NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, migrations.Migrations, gotSchema)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_create_users.sql", "00002_create_streams.sql"}, files)

	streamsSQL, err := fs.ReadFile(migrations.Migrations, "00002_create_streams.sql")
	require.NoError(t, err)
	assert.Contains(t, string(streamsSQL), "ON streams (user_id) WHERE status = 'active'")
}
