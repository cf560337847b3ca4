package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/cache"
	"github.com/dmitrijs2005/streamkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
	"github.com/dmitrijs2005/streamkeeper/internal/server/playback"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// IngestGrant identifies the broadcast an accepted stream key belongs to.
type IngestGrant struct {
	UserID   string `json:"userId"`
	StreamID string `json:"streamId"`
}

// StreamService enforces "at most one active stream per user" and answers
// publish checks from the ingest layer.
type StreamService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	playback    *playback.Resolver
	keys        cache.KeyCache
	keyValidity time.Duration
	metrics     *metrics.Metrics
	log         logging.Logger

	now    func() time.Time
	newID  func() string
	newKey func() (string, error)
}

func NewStreamService(tx dbx.Transactor, rm repomanager.RepositoryManager, resolver *playback.Resolver,
	keys cache.KeyCache, keyValidity time.Duration, m *metrics.Metrics, log logging.Logger) *StreamService {

	if keys == nil {
		keys = cache.Nop{}
	}
	if keyValidity <= 0 {
		keyValidity = common.DefaultStreamKeyValidity
	}

	return &StreamService{
		tx:          tx,
		repomanager: rm,
		playback:    resolver,
		keys:        keys,
		keyValidity: keyValidity,
		metrics:     m,
		log:         log.With("module", "streams"),
		now:         time.Now,
		newID:       uuid.NewString,
		newKey:      func() (string, error) { return common.MakeRandURLToken(common.StreamKeyBytes) },
	}
}

// readCommitted lets the re-read after a skipped insert see the row the
// winning transaction committed.
var readCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// GenerateKey returns the caller's active stream, creating one if needed.
// When a stream was already active it is returned unchanged together with
// common.ErrStreamActive. Expiry is not consulted here.
func (s *StreamService) GenerateKey(ctx context.Context, userID string) (*models.StreamView, error) {
	key, err := s.newKey()
	if err != nil {
		return nil, serviceError(ctx, s.log, "stream key", err)
	}

	now := s.now().UTC()
	candidate := &models.Stream{
		ID:        s.newID(),
		UserID:    userID,
		StreamKey: key,
		Status:    models.StreamActive,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.keyValidity),
	}

	var st *models.Stream
	existing := false

	err = s.tx.InTx(ctx, readCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Streams(tx)

		cur, err := repo.GetActiveByUser(ctx, userID)
		if err == nil {
			st, existing = cur, true
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		created, err := repo.CreateActive(ctx, candidate)
		if errors.Is(err, common.ErrDuplicate) {
			// A concurrent generate won the partial unique index.
			cur, err := repo.GetActiveByUser(ctx, userID)
			if err != nil {
				return err
			}
			st, existing = cur, true
			return nil
		}
		if err != nil {
			return err
		}
		st = created
		return nil
	})
	if err != nil {
		return nil, serviceError(ctx, s.log, "generate key", err)
	}

	view := s.playback.View(ctx, st)

	if existing {
		s.metrics.KeyGenerated(metrics.ResultExisting)
		return view, common.ErrStreamActive
	}

	s.cacheKey(ctx, st)
	s.metrics.KeyGenerated(metrics.ResultCreated)
	s.log.Info(ctx, "stream key generated", "user_id", userID, "stream_id", st.ID)

	return view, nil
}

// StopStream stops the caller's active stream and evicts its key from the
// ingest cache once the change is committed.
func (s *StreamService) StopStream(ctx context.Context, userID string) (*models.StreamView, error) {
	var st *models.Stream

	err := s.tx.InTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		st, err = s.repomanager.Streams(tx).StopActive(ctx, userID, s.now().UTC())
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrNoActiveStream
	}
	if err != nil {
		return nil, serviceError(ctx, s.log, "stop stream", err)
	}

	if err := s.keys.Delete(ctx, st.StreamKey); err != nil {
		s.log.Warn(ctx, "stream key cache eviction failed", "stream_id", st.ID, "error", err)
	}

	s.metrics.StreamStopped()
	s.log.Info(ctx, "stream stopped", "user_id", userID, "stream_id", st.ID)

	return s.playback.View(ctx, st), nil
}

// ListStreams returns every stream the caller owns, newest first.
func (s *StreamService) ListStreams(ctx context.Context, userID string) ([]*models.StreamView, error) {
	list, err := s.repomanager.Streams(s.tx.Conn()).ListByUser(ctx, userID)
	if err != nil {
		return nil, serviceError(ctx, s.log, "list streams", err)
	}

	views := make([]*models.StreamView, 0, len(list))
	for _, st := range list {
		views = append(views, s.playback.View(ctx, st))
	}
	return views, nil
}

// AuthorizeKey accepts a key only while its stream is active and not past
// expiresAt. It never changes the stream's status.
func (s *StreamService) AuthorizeKey(ctx context.Context, streamKey string) (*IngestGrant, error) {
	streamKey = strings.TrimSpace(streamKey)
	if streamKey == "" {
		s.metrics.IngestAuthorization(metrics.OutcomeRejected)
		return nil, common.ErrStreamKeyRejected
	}

	now := s.now()

	entry, err := s.keys.Get(ctx, streamKey)
	if err != nil {
		s.log.Warn(ctx, "stream key cache lookup failed", "error", err)
	}
	if entry != nil && now.Before(entry.ExpiresAt) {
		s.metrics.IngestAuthorization(metrics.OutcomeSuccess)
		return &IngestGrant{UserID: entry.UserID, StreamID: entry.StreamID}, nil
	}

	st, err := s.repomanager.Streams(s.tx.Conn()).GetByKey(ctx, streamKey)
	if errors.Is(err, common.ErrorNotFound) {
		s.metrics.IngestAuthorization(metrics.OutcomeRejected)
		return nil, common.ErrStreamKeyRejected
	}
	if err != nil {
		s.metrics.IngestAuthorization(metrics.OutcomeError)
		return nil, serviceError(ctx, s.log, "authorize key", err)
	}

	if !st.Usable(now) {
		s.metrics.IngestAuthorization(metrics.OutcomeRejected)
		return nil, common.ErrStreamKeyRejected
	}

	s.cacheKey(ctx, st)
	s.metrics.IngestAuthorization(metrics.OutcomeSuccess)

	return &IngestGrant{UserID: st.UserID, StreamID: st.ID}, nil
}

func (s *StreamService) cacheKey(ctx context.Context, st *models.Stream) {
	err := s.keys.Set(ctx, st.StreamKey, cache.Entry{
		UserID:    st.UserID,
		StreamID:  st.ID,
		ExpiresAt: st.ExpiresAt,
	})
	if err != nil {
		s.log.Warn(ctx, "stream key cache write failed", "stream_id", st.ID, "error", err)
	}
}
