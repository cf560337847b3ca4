// Package session stores the CLI's login session in the local SQLite
// database. At most one session is kept; saving replaces it.
package session

import (
	"context"

	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
)

type Repository interface {
	// Load returns the saved session, or nil when there is none.
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
