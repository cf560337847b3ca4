// Package memory is an in-process RepositoryManager and dbx.Transactor used
// by tests and local runs without PostgreSQL. It enforces the same unique
// constraints as the SQL schema and runs transactions one at a time.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/streams"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/users"
)

// Store keeps users and streams in maps. Writes outside InTx are not rolled
// back by a concurrently failing transaction.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users   map[string]models.User
	streams map[string]models.Stream

	fail func(op string) error
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]models.User),
		streams: make(map[string]models.Stream),
	}
}

// FailWith installs a hook consulted before every repository operation;
// a non-nil result is returned as that operation's error. Pass nil to clear.
func (s *Store) FailWith(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

func (s *Store) check(op string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail(op)
}

// Conn returns nil; memory repositories ignore their DBTX.
func (s *Store) Conn() dbx.DBTX {
	return nil
}

func (s *Store) PingContext(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check("ping")
}

// InTx runs fn with exclusive access and restores the previous state when
// fn fails or panics.
func (s *Store) InTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	u, st := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(u, st)
			panic(p)
		}
		if err != nil {
			s.restore(u, st)
		}
	}()

	return fn(ctx, nil)
}

func (s *Store) snapshot() (map[string]models.User, map[string]models.Stream) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u := make(map[string]models.User, len(s.users))
	for k, v := range s.users {
		u[k] = v
	}
	st := make(map[string]models.Stream, len(s.streams))
	for k, v := range s.streams {
		st[k] = v
	}
	return u, st
}

func (s *Store) restore(u map[string]models.User, st map[string]models.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = u
	s.streams = st
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (s *Store) Users(dbx.DBTX) users.Repository {
	return &userRepository{s: s}
}

func (s *Store) Streams(dbx.DBTX) streams.Repository {
	return &streamRepository{s: s}
}
