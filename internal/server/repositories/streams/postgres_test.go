package streams

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var cols = []string{"id", "user_id", "stream_key", "status", "created_at", "updated_at", "expires_at"}

var t0 = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func activeRow(rows *sqlmock.Rows, id, key string, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "u-1", key, "active", created, created, created.Add(24*time.Hour))
}

func TestGetActiveByUser(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*user_id,\s*stream_key,\s*status,\s*created_at,\s*updated_at,\s*expires_at\s+FROM\s+streams\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+status\s*=\s*'active'\s*$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-1").
			WillReturnRows(activeRow(sqlmock.NewRows(cols), "s-1", "key-1", t0))

		got, err := repo.GetActiveByUser(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, &models.Stream{
			ID: "s-1", UserID: "u-1", StreamKey: "key-1", Status: models.StreamActive,
			CreatedAt: t0, UpdatedAt: t0, ExpiresAt: t0.Add(24 * time.Hour),
		}, got)
	})

	t.Run("none", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetActiveByUser(context.Background(), "u-1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-1").WillReturnError(errors.New("conn reset"))

		_, err := repo.GetActiveByUser(context.Background(), "u-1")
		if err == nil || !regexp.MustCompile(`db error: .*conn reset`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}

func TestCreateActive(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+streams\s*\(id,\s*user_id,\s*stream_key,\s*status,\s*created_at,\s*updated_at,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*'active',\s*\$4,\s*\$5,\s*\$6\)\s*ON\s+CONFLICT\s+\(user_id\)\s+WHERE\s+status\s*=\s*'active'\s+DO\s+NOTHING\s+RETURNING\s+id,.*expires_at\s*$`

	in := func() *models.Stream {
		return &models.Stream{ID: "s-1", UserID: "u-1", StreamKey: "key-1",
			CreatedAt: t0, UpdatedAt: t0, ExpiresAt: t0.Add(24 * time.Hour)}
	}

	t.Run("inserted", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).
			WithArgs("s-1", "u-1", "key-1", t0, t0, t0.Add(24*time.Hour)).
			WillReturnRows(activeRow(sqlmock.NewRows(cols), "s-1", "key-1", t0))

		got, err := repo.CreateActive(context.Background(), in())
		require.NoError(t, err)
		assert.Equal(t, models.StreamActive, got.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("partial index skipped the row", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.CreateActive(context.Background(), in())
		assert.ErrorIs(t, err, common.ErrDuplicate)
	})

	t.Run("stream key collision", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_streams_stream_key"})

		_, err := repo.CreateActive(context.Background(), in())
		assert.ErrorIs(t, err, common.ErrDuplicate)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

		_, err := repo.CreateActive(context.Background(), in())
		assert.ErrorContains(t, err, "db error: db down")
		assert.NotErrorIs(t, err, common.ErrDuplicate)
	})
}

func TestStopActive(t *testing.T) {
	q := `(?s)^UPDATE\s+streams\s+SET\s+status\s*=\s*'stopped',\s*updated_at\s*=\s*\$2\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+status\s*=\s*'active'\s+RETURNING\s+id,.*expires_at\s*$`
	later := t0.Add(time.Hour)

	t.Run("stopped", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-1", later).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("s-1", "u-1", "key-1", "stopped", t0, later, t0.Add(24*time.Hour)))

		got, err := repo.StopActive(context.Background(), "u-1", later)
		require.NoError(t, err)
		assert.Equal(t, models.StreamStopped, got.Status)
		assert.Equal(t, later, got.UpdatedAt)
	})

	t.Run("nothing active", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-1", later).WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.StopActive(context.Background(), "u-1", later)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestListByUser(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+streams\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+DESC\s*$`

	t.Run("rows", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		rows := sqlmock.NewRows(cols).
			AddRow("s-2", "u-1", "key-2", "active", t0.Add(time.Hour), t0.Add(time.Hour), t0.Add(25*time.Hour)).
			AddRow("s-1", "u-1", "key-1", "stopped", t0, t0.Add(time.Minute), t0.Add(24*time.Hour))
		mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(rows)

		got, err := repo.ListByUser(context.Background(), "u-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "s-2", got[0].ID)
		assert.Equal(t, models.StreamStopped, got[1].Status)
	})

	t.Run("empty is not nil", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-9").WillReturnRows(sqlmock.NewRows(cols))

		got, err := repo.ListByUser(context.Background(), "u-9")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		rows := activeRow(sqlmock.NewRows(cols), "s-1", "key-1", t0).RowError(0, errors.New("broken row"))
		mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(rows)

		_, err := repo.ListByUser(context.Background(), "u-1")
		assert.ErrorContains(t, err, "db error")
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-1").WillReturnError(errors.New("db down"))

		_, err := repo.ListByUser(context.Background(), "u-1")
		assert.ErrorContains(t, err, "db error: db down")
	})
}

func TestGetByKey(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+streams\s+WHERE\s+stream_key\s*=\s*\$1\s*$`

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(q).WithArgs("key-1").
		WillReturnRows(activeRow(sqlmock.NewRows(cols), "s-1", "key-1", t0))
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByKey(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)

	_, err = repo.GetByKey(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
