// Package common defines shared constants and errors used across
// streamkeeper components. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate value")

	// Error kinds. Every *Error unwraps to exactly one of these.
	KindValidation   = errors.New("validation error")
	KindUnauthorized = errors.New("unauthorized")
	KindConflict     = errors.New("conflict")
	KindNotFound     = errors.New("not found")
	KindInternal     = errors.New("internal error")
)

// Reasons refine an error kind.
const (
	ReasonMissingField      = "missing_field"
	ReasonWeakPassword      = "weak_password"
	ReasonFieldTooLong      = "field_too_long"
	ReasonMalformedRequest  = "malformed_request"
	ReasonMissingToken      = "missing_token"
	ReasonTokenExpired      = "token_expired"
	ReasonInvalidToken      = "invalid_token"
	ReasonBadCredentials    = "bad_credentials"
	ReasonKeyRejected       = "stream_key_rejected"
	ReasonIngestSecret      = "ingest_secret"
	ReasonDuplicateIdentity = "duplicate_identity"
	ReasonStreamActive      = "stream_already_active"
	ReasonIdentity          = "identity"
	ReasonNoActiveStream    = "no_active_stream"
	ReasonStorage           = "storage"
)

// Error is a service-boundary error: a stable kind, an optional reason and a
// message that is safe to show to callers.
type Error struct {
	Kind   error
	Reason string
	Msg    string
}

// NewError builds an *Error of the given kind.
func NewError(kind error, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Msg: msg}
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v/%s: %s", e.Kind, e.Reason, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Is matches another *Error with the same kind and reason, so predefined
// errors below work with errors.Is regardless of their message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

// Code returns "<kind>/<reason>" for wire responses.
func (e *Error) Code() string {
	kind := kindNames[e.Kind]
	if kind == "" {
		kind = "internal"
	}
	if e.Reason == "" {
		return kind
	}
	return kind + "/" + e.Reason
}

var kindNames = map[error]string{
	KindValidation:   "validation",
	KindUnauthorized: "unauthorized",
	KindConflict:     "conflict",
	KindNotFound:     "not_found",
	KindInternal:     "internal",
}

var (
	ErrMissingField      = NewError(KindValidation, ReasonMissingField, "required field is missing")
	ErrWeakPassword      = NewError(KindValidation, ReasonWeakPassword, "Password must be at least 8 characters long")
	ErrFieldTooLong      = NewError(KindValidation, ReasonFieldTooLong, "a field exceeds its maximum length")
	ErrMalformedRequest  = NewError(KindValidation, ReasonMalformedRequest, "malformed request body")
	ErrMissingToken      = NewError(KindUnauthorized, ReasonMissingToken, "Authentication token is missing")
	ErrTokenExpired      = NewError(KindUnauthorized, ReasonTokenExpired, "Token has expired")
	ErrInvalidToken      = NewError(KindUnauthorized, ReasonInvalidToken, "Invalid token")
	ErrBadCredentials    = NewError(KindUnauthorized, ReasonBadCredentials, "Invalid email/username or password")
	ErrStreamKeyRejected = NewError(KindUnauthorized, ReasonKeyRejected, "stream key is not active")
	ErrIngestForbidden   = NewError(KindUnauthorized, ReasonIngestSecret, "ingest secret mismatch")
	ErrDuplicateIdentity = NewError(KindConflict, ReasonDuplicateIdentity, "Username or email already exists")
	ErrStreamActive      = NewError(KindConflict, ReasonStreamActive, "User already has an active stream")
	ErrUserNotFound      = NewError(KindNotFound, ReasonIdentity, "User not found")
	ErrNoActiveStream    = NewError(KindNotFound, ReasonNoActiveStream, "No active stream found")
	ErrorInternal        = NewError(KindInternal, ReasonStorage, "internal error")
)

// MissingField reports a required field that was absent or blank.
func MissingField(field string) error {
	return NewError(KindValidation, ReasonMissingField, field+" is required")
}

// FieldTooLong reports a field longer than max characters.
func FieldTooLong(field string, max int) error {
	return NewError(KindValidation, ReasonFieldTooLong, fmt.Sprintf("%s must be at most %d characters", field, max))
}

// AsError extracts an *Error from err. Anything that is not an *Error is
// reported as ErrorInternal so driver details never leak.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrorInternal
}
