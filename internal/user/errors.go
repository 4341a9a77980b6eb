package user

import (
	"errors"

	"github.com/samber/oops"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrEmailTaken     = errors.New("email already exists")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrEmailNotFound  = errors.New("email does not exist")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrPasswordRace   = errors.New("password changed concurrently")
)

// ValidationError carries the client-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// internalErr wraps a collaborator failure. Callers only ever see a generic
// message; the operation name and cause go to the log.
func internalErr(op string, err error) error {
	return oops.In("credential").
		Code("internal").
		With("operation", op).
		Wrap(err)
}
