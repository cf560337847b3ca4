package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const sessionsDDL = `
CREATE TABLE sessions (
	id      INTEGER PRIMARY KEY,
	user_id TEXT NOT NULL,
	active  INTEGER NOT NULL
);
CREATE UNIQUE INDEX sessions_one_active ON sessions(user_id) WHERE active = 1;`

func openSessionsDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(sessionsDDL)
	require.NoError(t, err)
	return db
}

func activeSessions(t *testing.T, q DBTX, userID string) int {
	t.Helper()
	var n int
	err := q.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND active = 1`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestWithTx_Outcome(t *testing.T) {
	errFn := errors.New("fn failed")

	tests := []struct {
		name    string
		fnErr   error
		expect  func(m sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name:  "commit",
			fnErr: nil,
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
		},
		{
			name:  "rollback on fn error",
			fnErr: errFn,
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("UPDATE sessions").WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectRollback()
			},
			wantErr: errFn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.expect(mock)

			err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
				if _, err := tx.ExecContext(ctx, "UPDATE sessions SET active = 0"); err != nil {
					return err
				}
				return tt.fnErr
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWithTx_CommitFailureIsReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error { return nil })
	require.EqualError(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailureSkipsFn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.EqualError(t, err, "no connection")
	require.False(t, called)
}

func TestWithTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openSessionsDB(t)

	require.PanicsWithValue(t, "mid-transaction", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO sessions(user_id, active) VALUES ('u1', 1)`)
			require.NoError(t, err)
			panic("mid-transaction")
		})
	})
	require.Equal(t, 0, activeSessions(t, db, "u1"))
}

func TestSQLTransactor_SupersedeActiveSession(t *testing.T) {
	db := openSessionsDB(t)
	tr := NewSQLTransactor(db)
	ctx := context.Background()

	require.NoError(t, tr.PingContext(ctx))

	_, err := tr.Conn().ExecContext(ctx, `INSERT INTO sessions(user_id, active) VALUES ('u1', 1)`)
	require.NoError(t, err)

	err = tr.InTx(ctx, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET active = 0 WHERE user_id = 'u1' AND active = 1`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO sessions(user_id, active) VALUES ('u1', 1)`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, activeSessions(t, tr.Conn(), "u1"))

	var total int
	require.NoError(t, tr.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&total))
	require.Equal(t, 2, total)
}

func TestSQLTransactor_ConstraintViolationRollsBack(t *testing.T) {
	db := openSessionsDB(t)
	tr := NewSQLTransactor(db)
	ctx := context.Background()

	err := tr.InTx(ctx, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sessions(user_id, active) VALUES ('u2', 1)`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO sessions(user_id, active) VALUES ('u2', 1)`)
		return err
	})
	require.Error(t, err)
	require.Equal(t, 0, activeSessions(t, tr.Conn(), "u2"))
}

func TestSQLTransactor_PingAfterClose(t *testing.T) {
	db := openSessionsDB(t)
	tr := NewSQLTransactor(db)
	require.NoError(t, db.Close())
	require.Error(t, tr.PingContext(context.Background()))
}
