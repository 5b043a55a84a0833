package catalog

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error that crosses an API boundary wraps
// exactly one of these so callers can branch with errors.Is.
var (
	// ErrNotFound: the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: the caller is authenticated but not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized: the credential is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict: a uniqueness invariant would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput: the request is well-formed JSON but semantically
	// unusable (no mutable fields, missing required cross-field value, ...).
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundf returns an ErrNotFound wrapped with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Forbiddenf returns an ErrForbidden wrapped with a formatted message.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// Unauthorizedf returns an ErrUnauthorized wrapped with a formatted message.
func Unauthorizedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnauthorized)...)
}

// Conflictf returns an ErrConflict wrapped with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// InvalidInputf returns an ErrInvalidInput wrapped with a formatted message.
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}
