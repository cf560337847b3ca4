package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

type streamRepository struct {
	s *Store
}

func (r *streamRepository) activeLocked(userID string) (models.Stream, bool) {
	for _, st := range r.s.streams {
		if st.UserID == userID && st.Status == models.StreamActive {
			return st, true
		}
	}
	return models.Stream{}, false
}

func (r *streamRepository) GetActiveByUser(ctx context.Context, userID string) (*models.Stream, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.check("streams.get_active"); err != nil {
		return nil, err
	}

	st, ok := r.activeLocked(userID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &st, nil
}

func (r *streamRepository) CreateActive(ctx context.Context, stream *models.Stream) (*models.Stream, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.check("streams.create_active"); err != nil {
		return nil, err
	}

	if _, ok := r.activeLocked(stream.UserID); ok {
		return nil, common.ErrDuplicate
	}
	for _, st := range r.s.streams {
		if st.ID == stream.ID || st.StreamKey == stream.StreamKey {
			return nil, common.ErrDuplicate
		}
	}

	st := *stream
	st.Status = models.StreamActive
	r.s.streams[st.ID] = st
	return &st, nil
}

func (r *streamRepository) StopActive(ctx context.Context, userID string, now time.Time) (*models.Stream, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.check("streams.stop_active"); err != nil {
		return nil, err
	}

	st, ok := r.activeLocked(userID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	st.Status = models.StreamStopped
	st.UpdatedAt = now
	r.s.streams[st.ID] = st
	return &st, nil
}

func (r *streamRepository) ListByUser(ctx context.Context, userID string) ([]*models.Stream, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.check("streams.list"); err != nil {
		return nil, err
	}

	result := make([]*models.Stream, 0)
	for _, st := range r.s.streams {
		if st.UserID == userID {
			result = append(result, &st)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *streamRepository) GetByKey(ctx context.Context, streamKey string) (*models.Stream, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.check("streams.get_by_key"); err != nil {
		return nil, err
	}

	for _, st := range r.s.streams {
		if st.StreamKey == streamKey {
			return &st, nil
		}
	}
	return nil, common.ErrorNotFound
}
