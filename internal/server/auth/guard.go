package auth

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
)

// Identity is the authenticated caller, passed explicitly to handlers.
type Identity struct {
	UserID string
	Email  string
}

// Authenticate verifies an Authorization header value of the form
// "Bearer <token>" with the codec that issues tokens. The identity row is not
// re-read, so a token stays usable until it expires.
func Authenticate(header string, codec *TokenCodec) (Identity, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return Identity{}, common.ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, common.ErrMissingToken
	}

	claims, err := codec.Parse(token)
	if errors.Is(err, ErrTokenExpired) {
		return Identity{}, common.ErrTokenExpired
	}
	if err != nil {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
