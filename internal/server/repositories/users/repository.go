package users

import (
	"context"

	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

// Repository persists identities. Lookups by login are case-insensitive on
// username and exact on the (already lowercased) email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
