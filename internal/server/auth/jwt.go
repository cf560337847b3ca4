// Package auth issues and verifies the signed identity tokens handed out on
// register/login, and turns an Authorization header into an Identity.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims carries the identity id in "sub" plus the email it was issued for.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// timeNow is a seam for tests.
var timeNow = time.Now

// IssueToken signs an HS256 token for subject that expires ttl from now.
func IssueToken(subject, email string, secretKey []byte, ttl time.Duration) (string, error) {
	now := timeNow()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature first and only then the expiry, so a
// forged token is always reported as malformed even when it is also stale.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(timeNow),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrTokenMalformed
	case !token.Valid || claims.Subject == "":
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// TokenCodec binds the signing secret and token lifetime from configuration.
type TokenCodec struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenCodec(secretKey []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secretKey: secretKey, ttl: ttl}
}

func (c *TokenCodec) Issue(subject, email string) (string, error) {
	return IssueToken(subject, email, c.secretKey, c.ttl)
}

func (c *TokenCodec) Parse(token string) (*Claims, error) {
	return ParseToken(token, c.secretKey)
}
