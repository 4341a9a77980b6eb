package repo

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrConflictRetry is returned by UpdatePasswordHash when the stored
	// credential version no longer matches the one the caller read.
	ErrConflictRetry = errors.New("credential version conflict")
)
