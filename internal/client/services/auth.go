// Package services contains application services for the streamkeeper CLI.
// This file defines the authentication service: register, login, logout
// and resolution of the bearer token used by every protected call.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/client/client"
	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
	"github.com/dmitrijs2005/streamkeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/streamkeeper/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register and Login talk to the server and save the returned token.
//   - Logout forgets the saved token; the server keeps no session state.
//   - Token returns the configured override token, else the saved one.
type AuthService interface {
	Register(ctx context.Context, req client.RegisterRequest) (*models.Session, error)
	Login(ctx context.Context, identifier string, password []byte) (*models.Session, error)
	Logout(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	Me(ctx context.Context) (*models.User, error)
}

type authService struct {
	api      client.API
	sessions session.Repository
	override string
	now      func() time.Time
}

// NewAuthService constructs an AuthService. A non-empty token takes priority
// over the saved session.
func NewAuthService(api client.API, sessions session.Repository, token string) AuthService {
	return &authService{api: api, sessions: sessions, override: token, now: time.Now}
}

func (a *authService) save(ctx context.Context, token, username string) (*models.Session, error) {
	s := &models.Session{
		Token:     token,
		Username:  username,
		ServerURL: a.api.BaseURL(),
		SavedAt:   a.now().UTC().Truncate(time.Second),
	}
	if err := a.sessions.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) Register(ctx context.Context, req client.RegisterRequest) (*models.Session, error) {
	token, err := a.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.save(ctx, token, req.Username)
}

// Login wipes password once the request has been sent.
func (a *authService) Login(ctx context.Context, identifier string, password []byte) (*models.Session, error) {
	defer common.WipeByteArray(password)

	token, user, err := a.api.Login(ctx, identifier, string(password))
	if err != nil {
		return nil, err
	}

	username := identifier
	if user != nil && user.Username != "" {
		username = user.Username
	}
	return a.save(ctx, token, username)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

// Token ignores a saved session that belongs to a different server.
func (a *authService) Token(ctx context.Context) (string, error) {
	if a.override != "" {
		return a.override, nil
	}

	s, err := a.sessions.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("session loading error: %w", err)
	}
	if s == nil || s.Token == "" || s.ServerURL != a.api.BaseURL() {
		return "", client.ErrNotLoggedIn
	}
	return s.Token, nil
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	return a.api.Me(ctx, token)
}
