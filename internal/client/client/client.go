package client

import (
	"context"

	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
)

// RegisterRequest carries the fields accepted by POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// API is the account and stream-key surface of the server.
type API interface {
	Register(ctx context.Context, req RegisterRequest) (token string, err error)
	Login(ctx context.Context, identifier, password string) (token string, user *models.User, err error)
	Me(ctx context.Context, token string) (*models.User, error)
	GenerateKey(ctx context.Context, token string) (stream *models.Stream, created bool, err error)
	StopStream(ctx context.Context, token string) (*models.Stream, error)
	ListStreams(ctx context.Context, token string) ([]*models.Stream, error)
	BaseURL() string
}

// Ingest is the media-server-facing key check.
type Ingest interface {
	Authorize(ctx context.Context, streamKey string) (*models.IngestGrant, error)
	Ping(ctx context.Context) error
	Close() error
}
