package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandURLToken returns size bytes from crypto/rand encoded as unpadded
// base64url, so the result is safe to embed in URL paths.
func MakeRandURLToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place. Nil is allowed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
