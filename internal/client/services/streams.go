package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/streamkeeper/internal/client/client"
	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
	"github.com/dmitrijs2005/streamkeeper/internal/common"
)

// StreamService manages the caller's stream keys and checks keys the way a
// media server would.
type StreamService interface {
	GenerateKey(ctx context.Context) (stream *models.Stream, created bool, err error)
	Stop(ctx context.Context) (*models.Stream, error)
	List(ctx context.Context) ([]*models.Stream, error)
	CheckKey(ctx context.Context, streamKey string) (*models.IngestGrant, error)
}

type streamService struct {
	api    client.API
	ingest client.Ingest
	auth   AuthService
}

func NewStreamService(api client.API, ingest client.Ingest, auth AuthService) StreamService {
	return &streamService{api: api, ingest: ingest, auth: auth}
}

func (s *streamService) GenerateKey(ctx context.Context) (*models.Stream, bool, error) {
	token, err := s.auth.Token(ctx)
	if err != nil {
		return nil, false, err
	}
	return s.api.GenerateKey(ctx, token)
}

func (s *streamService) Stop(ctx context.Context) (*models.Stream, error) {
	token, err := s.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.StopStream(ctx, token)
}

func (s *streamService) List(ctx context.Context) ([]*models.Stream, error) {
	token, err := s.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.ListStreams(ctx, token)
}

// CheckKey needs no login: it authenticates with the ingest secret only.
func (s *streamService) CheckKey(ctx context.Context, streamKey string) (*models.IngestGrant, error) {
	streamKey = strings.TrimSpace(streamKey)
	if streamKey == "" {
		return nil, common.MissingField("stream key")
	}
	return s.ingest.Authorize(ctx, streamKey)
}
