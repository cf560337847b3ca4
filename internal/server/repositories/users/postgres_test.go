package users

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

var userColumns = []string{"id", "username", "email", "password_hash", "first_name", "last_name", "created_at"}

const insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*first_name,\s*last_name,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+created_at\s*$`

func newUser(now time.Time) *models.User {
	return &models.User{
		ID: "u-1", Username: "Alice", Email: "alice@example.com", PasswordHash: "hash",
		FirstName: "Alice", LastName: "Liddell", CreatedAt: now,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	stored := now.Add(time.Millisecond)

	mock.ExpectQuery(insertQuery).
		WithArgs("u-1", "Alice", "alice@example.com", "hash", "Alice", "Liddell", now).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(stored))

	got, err := repo.Create(context.Background(), newUser(now))
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, stored, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"})

	_, err := repo.Create(context.Background(), newUser(now))
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

func TestCreate_ValueTooLong(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "22001", Message: "value too long for type character varying(50)"})

	_, err := repo.Create(context.Background(), newUser(time.Now()))
	assert.ErrorIs(t, err, common.ErrFieldTooLong)
	assert.ErrorIs(t, err, common.KindValidation)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newUser(time.Now()))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestExistsByUsernameOrEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$2\s*\)\s*$`

	mock.ExpectQuery(q).
		WithArgs("ALICE", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).
		WithArgs("bob", "bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(q).
		WithArgs("carol", "carol@example.com").
		WillReturnError(errors.New("db err"))

	ok, err := repo.ExistsByUsernameOrEmail(context.Background(), "ALICE", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByUsernameOrEmail(context.Background(), "bob", "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.ExistsByUsernameOrEmail(context.Background(), "carol", "carol@example.com")
	assert.ErrorContains(t, err, "db error")
}

const byLoginQuery = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*first_name,\s*last_name,\s*created_at\s+FROM\s+users\s+WHERE\s+lower\(username\)\s*=\s*lower\(\$1\)\s+OR\s+email\s*=\s*lower\(\$1\)\s+ORDER\s+BY.*LIMIT\s+1\s*$`

func TestGetByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(byLoginQuery).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "Alice", "alice@example.com", "hash", "Alice", "", now))

	got, err := repo.GetByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{
		ID: "u-1", Username: "Alice", Email: "alice@example.com", PasswordHash: "hash",
		FirstName: "Alice", CreatedAt: now,
	}, got)
}

func TestGetByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byLoginQuery).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByLogin_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byLoginQuery).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByLogin(context.Background(), "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		now := time.Now().UTC()
		mock.ExpectQuery(q).
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("u-1", "Alice", "alice@example.com", "hash", "", "", now))

		got, err := repo.GetByID(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Username)
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("u-2").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "u-2")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("id that is not a uuid", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("nope").WillReturnError(&pgconn.PgError{Code: "22P02"})

		_, err := repo.GetByID(context.Background(), "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
