// Package cryptox holds the password hashing capability used by the
// credential service. Two interchangeable implementations are provided:
// bcrypt (the default) and argon2id.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plaintext password into a storable digest and
// checks a plaintext against a digest produced earlier.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(digest, plain string) bool
}

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var ErrUnknownHasher = errors.New("unknown password hasher")

// NewPasswordHasher picks an implementation by name. An empty name selects
// bcrypt; bcryptCost <= 0 selects bcrypt.DefaultCost.
func NewPasswordHasher(name string, bcryptCost int) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HasherBcrypt:
		return NewBcryptHasher(bcryptCost), nil
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// bcryptMaxInput is the longest input bcrypt accepts.
const bcryptMaxInput = 72

// bcryptInput returns plain unchanged when bcrypt can take it. Longer
// passwords are replaced by their base64 SHA-256 digest (44 bytes), so every
// byte of them still counts.
func bcryptInput(plain string) []byte {
	if len(plain) <= bcryptMaxInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(bcryptInput(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(plain)) == nil
}

// randRead is replaced in tests.
var randRead = rand.Read

// Argon2idHasher produces PHC-style strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// with salt and key in unpadded standard base64.
type Argon2idHasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32, saltLen: 16}
}

func (h *Argon2idHasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := randRead(salt); err != nil {
		return "", fmt.Errorf("argon2id salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, h.time, h.memory, h.threads, h.keyLen)

	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		enc.EncodeToString(salt), enc.EncodeToString(key)), nil
}

// Verify recomputes the key with the parameters stored in digest, so digests
// created with other cost settings still verify.
func (h *Argon2idHasher) Verify(digest, plain string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := enc.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(plain), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
