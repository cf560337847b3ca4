package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/streams"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on the plain connection and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Streams(db dbx.DBTX) streams.Repository
}
