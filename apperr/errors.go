// Package apperr defines the domain error taxonomy. Services return errors
// wrapping one of these sentinels; the handler layer maps them to HTTP codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means a constraint was violated (bad rating, bad discount).
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden means a business rule denies the operation (e.g. rating
	// a course without being enrolled).
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a concurrent-update precondition failed. Callers should
	// treat it as "already handled" and re-read, not as a fatal error.
	ErrConflict = errors.New("conflict")
	// ErrUpstream means an external collaborator failed or timed out.
	ErrUpstream = errors.New("upstream failure")
)

// NotFound wraps ErrNotFound with a message.
func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

// InvalidInput wraps ErrInvalidInput with a message.
func InvalidInput(format string, args ...interface{}) error {
	return wrap(ErrInvalidInput, format, args...)
}

// Forbidden wraps ErrForbidden with a message.
func Forbidden(format string, args ...interface{}) error {
	return wrap(ErrForbidden, format, args...)
}

// Conflict wraps ErrConflict with a message.
func Conflict(format string, args ...interface{}) error {
	return wrap(ErrConflict, format, args...)
}

// Upstream wraps ErrUpstream with a message.
func Upstream(format string, args ...interface{}) error {
	return wrap(ErrUpstream, format, args...)
}

func wrap(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
