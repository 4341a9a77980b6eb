package user

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Identity is the authenticated caller, produced by Authenticate and passed
// explicitly to the operations that need one.
type Identity struct {
	UserID string
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	TermsAccepted        bool   `json:"terms_accepted" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	Password             string `json:"password" validate:"required,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Password             string `json:"password" validate:"required,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// Response is the JSON body every credential endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const (
	msgAllRequired      = "All fields are required"
	msgEmailRequired    = "Email field is required"
	msgRegisterMismatch = "Password and Confirm Password do not match"
	msgMismatch         = "Passwords do not match"
	msgBadEmail         = "Invalid email address"
	msgTooLong          = "Password must be at most 72 bytes"
)

// requestValidator turns validator field errors into one client message.
// Missing fields win over any other failure.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *requestValidator) check(req any) error {
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return internalErr("validate request", err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			if _, ok := req.(ForgotPasswordRequest); ok {
				return invalid(msgEmailRequired)
			}
			return invalid(msgAllRequired)
		}
	}
	switch fe := fieldErrs[0]; fe.Tag() {
	case "eqfield":
		if _, ok := req.(RegisterRequest); ok {
			return invalid(msgRegisterMismatch)
		}
		return invalid(msgMismatch)
	case "email":
		return invalid(msgBadEmail)
	case "max":
		return invalid(msgTooLong)
	default:
		return invalid(msgAllRequired)
	}
}
