// Package services contains server-side business logic: UserService handles
// registration, login and profile lookup; StreamService manages stream keys.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/cryptox"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/streamkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// RegisterInput is the raw registration request; Register normalizes it.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type RegisterResult struct {
	UserID   string
	Username string
	Token    string
}

type LoginResult struct {
	Token string
	User  models.UserView
}

// UserService provides authentication-related operations:
// - Register: validate, create the user and mint a token
// - Login: verify credentials and mint a token
// - GetSelf: load the caller's profile
type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	tokens      *auth.TokenCodec
	metrics     *metrics.Metrics
	log         logging.Logger

	// dummyHash is verified against when the login identifier is unknown so
	// both failure paths cost one hash verification.
	dummyHash string

	now   func() time.Time
	newID func() string
}

func NewUserService(tx dbx.Transactor, rm repomanager.RepositoryManager, hasher cryptox.PasswordHasher,
	tokens *auth.TokenCodec, m *metrics.Metrics, log logging.Logger) (*UserService, error) {

	seed, err := common.MakeRandURLToken(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, err
	}

	return &UserService{
		tx:          tx,
		repomanager: rm,
		hasher:      hasher,
		tokens:      tokens,
		metrics:     m,
		log:         log.With("module", "users"),
		dummyHash:   dummy,
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

func normalizeRegistration(in RegisterInput) RegisterInput {
	return RegisterInput{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
}

// validateRegistration reports the first missing field in the order
// username, email, password, then a field wider than its column, then a
// too-short password.
func validateRegistration(in RegisterInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"username", in.Username},
		{"email", in.Email},
		{"password", strings.TrimSpace(in.Password)},
	}
	for _, f := range required {
		if err := validation.Validate(f.value, validation.Required); err != nil {
			return common.MissingField(f.name)
		}
	}

	bounded := []struct {
		name  string
		value string
		max   int
	}{
		{"username", in.Username, common.MaxUsernameLength},
		{"email", in.Email, common.MaxEmailLength},
		{"first name", in.FirstName, common.MaxNameLength},
		{"last name", in.LastName, common.MaxNameLength},
	}
	for _, f := range bounded {
		if err := validation.Validate(f.value, validation.RuneLength(0, f.max)); err != nil {
			return common.FieldTooLong(f.name, f.max)
		}
	}

	if err := validation.Validate(in.Password, validation.RuneLength(common.MinPasswordLength, 0)); err != nil {
		return common.ErrWeakPassword
	}
	return nil
}

// Register creates a user and returns a token for it. The existence check
// and insert share one transaction; a unique violation that races past the
// check is reported the same way as a failed check.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in = normalizeRegistration(in)
	if err := validateRegistration(in); err != nil {
		s.metrics.Registration(metrics.OutcomeRejected)
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.Registration(metrics.OutcomeError)
		return nil, serviceError(ctx, s.log, "password hash", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    s.now().UTC(),
	}

	err = s.tx.InTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByUsernameOrEmail(ctx, user.Username, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return common.ErrDuplicateIdentity
		}

		created, err := repo.Create(ctx, user)
		if errors.Is(err, common.ErrDuplicate) {
			return common.ErrDuplicateIdentity
		}
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.KindConflict) || errors.Is(err, common.KindValidation) {
			s.metrics.Registration(metrics.OutcomeRejected)
		} else {
			s.metrics.Registration(metrics.OutcomeError)
		}
		return nil, serviceError(ctx, s.log, "register", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.Registration(metrics.OutcomeError)
		return nil, serviceError(ctx, s.log, "issue token", err)
	}

	s.metrics.Registration(metrics.OutcomeSuccess)
	s.log.Info(ctx, "user registered", "user_id", user.ID)

	return &RegisterResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// Login accepts a username or an email as identifier. Unknown identifiers
// and wrong passwords fail with the same error.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		s.metrics.Login(metrics.OutcomeRejected)
		return nil, common.MissingField("username or email")
	}
	if password == "" {
		s.metrics.Login(metrics.OutcomeRejected)
		return nil, common.MissingField("password")
	}

	user, err := s.repomanager.Users(s.tx.Conn()).GetByLogin(ctx, identifier)
	if errors.Is(err, common.ErrorNotFound) {
		s.hasher.Verify(s.dummyHash, password)
		s.metrics.Login(metrics.OutcomeRejected)
		return nil, common.ErrBadCredentials
	}
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, serviceError(ctx, s.log, "login lookup", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.metrics.Login(metrics.OutcomeRejected)
		return nil, common.ErrBadCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return nil, serviceError(ctx, s.log, "issue token", err)
	}

	s.metrics.Login(metrics.OutcomeSuccess)
	return &LoginResult{Token: token, User: user.View()}, nil
}

func (s *UserService) GetSelf(ctx context.Context, userID string) (*models.UserView, error) {
	user, err := s.repomanager.Users(s.tx.Conn()).GetByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, serviceError(ctx, s.log, "get self", err)
	}

	v := user.View()
	return &v, nil
}
