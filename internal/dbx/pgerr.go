package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories care about.
const (
	CodeUniqueViolation      = "23505"
	CodeStringTooLong        = "22001"
	CodeInvalidTextRepresent = "22P02"
)

// PgCode returns the SQLSTATE carried by err, or "" when err did not come
// from PostgreSQL.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return PgCode(err) == CodeUniqueViolation
}
