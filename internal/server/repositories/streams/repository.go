// Package streams declares the stream session repository contract and its
// PostgreSQL implementation.
package streams

import (
	"context"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

// Repository persists stream sessions.
type Repository interface {
	// GetActiveByUser returns the owner's active stream or common.ErrorNotFound.
	GetActiveByUser(ctx context.Context, userID string) (*models.Stream, error)

	// CreateActive inserts stream as active. It returns common.ErrDuplicate
	// when the owner already has an active stream or the key is taken.
	CreateActive(ctx context.Context, stream *models.Stream) (*models.Stream, error)

	// StopActive moves the owner's active stream to stopped and returns it,
	// or common.ErrorNotFound when there is none.
	StopActive(ctx context.Context, userID string, now time.Time) (*models.Stream, error)

	// ListByUser returns all of the owner's streams, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Stream, error)

	// GetByKey looks a stream up by its key or returns common.ErrorNotFound.
	GetByKey(ctx context.Context, streamKey string) (*models.Stream, error)
}
