package memory

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.check("users.create"); err != nil {
		return nil, err
	}

	if !fitsColumns(user) {
		return nil, common.ErrFieldTooLong
	}

	for _, u := range r.s.users {
		if u.ID == user.ID || u.Username == user.Username || u.Email == user.Email {
			return nil, common.ErrDuplicate
		}
	}

	r.s.users[user.ID] = *user
	out := *user
	return &out, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.check("users.exists"); err != nil {
		return false, err
	}

	for _, u := range r.s.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.check("users.get_by_login"); err != nil {
		return nil, err
	}

	var folded, byEmail *models.User
	for _, u := range r.s.users {
		switch {
		case u.Username == login:
			out := u
			return &out, nil
		case strings.EqualFold(u.Username, login):
			if folded == nil || olderThan(u, *folded) {
				out := u
				folded = &out
			}
		case u.Email == strings.ToLower(login):
			out := u
			byEmail = &out
		}
	}
	if folded != nil {
		return folded, nil
	}
	if byEmail != nil {
		return byEmail, nil
	}
	return nil, common.ErrorNotFound
}

func olderThan(a, b models.User) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// fitsColumns mirrors the users table widths.
func fitsColumns(u *models.User) bool {
	return utf8.RuneCountInString(u.Username) <= common.MaxUsernameLength &&
		utf8.RuneCountInString(u.Email) <= common.MaxEmailLength &&
		utf8.RuneCountInString(u.FirstName) <= common.MaxNameLength &&
		utf8.RuneCountInString(u.LastName) <= common.MaxNameLength
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.check("users.get_by_id"); err != nil {
		return nil, err
	}

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}
