package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/cryptox"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/streamkeeper/internal/server/cache"
	"github.com/dmitrijs2005/streamkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/streamkeeper/internal/server/playback"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

// countingHasher wraps bcrypt at the cheapest cost and counts Verify calls.
type countingHasher struct {
	cryptox.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(digest, plain string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(digest, plain)
}

func (h *countingHasher) Verifies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

func newUserSvc(t *testing.T, store *memory.Store, rm repomanager.RepositoryManager) (*UserService, *countingHasher) {
	t.Helper()
	h := &countingHasher{PasswordHasher: cryptox.NewBcryptHasher(bcrypt.MinCost)}
	svc, err := NewUserService(store, rm, h, auth.NewTokenCodec(testSecret, time.Hour), metrics.New(), logging.Nop{})
	require.NoError(t, err)
	return svc, h
}

// fakeKeyCache is an in-process cache.KeyCache that records evictions.
type fakeKeyCache struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
	deleted []string
	getErr  error
	gets    int
}

func newFakeKeyCache() *fakeKeyCache {
	return &fakeKeyCache{entries: make(map[string]cache.Entry)}
}

func (c *fakeKeyCache) Get(_ context.Context, key string) (*cache.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *fakeKeyCache) Set(_ context.Context, key string, e cache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

func (c *fakeKeyCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *fakeKeyCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStreamSvc(t *testing.T, store *memory.Store, rm repomanager.RepositoryManager, keys cache.KeyCache) (*StreamService, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)}
	resolver := playback.NewResolver("media.example:1935", "media.example:8083", nil, logging.Nop{})
	svc := NewStreamService(store, rm, resolver, keys, 24*time.Hour, metrics.New(), logging.Nop{})
	svc.now = clk.Now
	return svc, clk
}
