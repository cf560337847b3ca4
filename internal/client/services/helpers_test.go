package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/streamkeeper/internal/client/client"
	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
)

// fakeAPI implements client.API for unit tests.
type fakeAPI struct {
	base string

	registerToken string
	registerErr   error
	lastRegister  client.RegisterRequest

	loginToken    string
	loginUser     *models.User
	loginErr      error
	lastLoginID   string
	lastLoginPass string

	me *models.User

	stream  *models.Stream
	created bool
	streams []*models.Stream
	err     error

	tokens []string
}

func (f *fakeAPI) BaseURL() string { return f.base }

func (f *fakeAPI) Register(_ context.Context, req client.RegisterRequest) (string, error) {
	f.lastRegister = req
	return f.registerToken, f.registerErr
}

func (f *fakeAPI) Login(_ context.Context, identifier, password string) (string, *models.User, error) {
	f.lastLoginID, f.lastLoginPass = identifier, password
	return f.loginToken, f.loginUser, f.loginErr
}

func (f *fakeAPI) Me(_ context.Context, token string) (*models.User, error) {
	f.tokens = append(f.tokens, token)
	return f.me, f.err
}

func (f *fakeAPI) GenerateKey(_ context.Context, token string) (*models.Stream, bool, error) {
	f.tokens = append(f.tokens, token)
	return f.stream, f.created, f.err
}

func (f *fakeAPI) StopStream(_ context.Context, token string) (*models.Stream, error) {
	f.tokens = append(f.tokens, token)
	return f.stream, f.err
}

func (f *fakeAPI) ListStreams(_ context.Context, token string) ([]*models.Stream, error) {
	f.tokens = append(f.tokens, token)
	return f.streams, f.err
}

// memSessions is an in-memory session.Repository.
type memSessions struct {
	mu      sync.Mutex
	s       *models.Session
	saveErr error
	loadErr error
}

func (m *memSessions) Load(context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *memSessions) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	m.s = &cp
	return nil
}

func (m *memSessions) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

type fakeIngest struct {
	grant   *models.IngestGrant
	err     error
	lastKey string
}

func (f *fakeIngest) Authorize(_ context.Context, key string) (*models.IngestGrant, error) {
	f.lastKey = key
	return f.grant, f.err
}

func (f *fakeIngest) Ping(context.Context) error { return f.err }
func (f *fakeIngest) Close() error               { return nil }
