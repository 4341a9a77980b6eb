package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/utilities"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"

	maxBodyBytes = 1 << 20
)

// Handler exposes HTTP endpoints for the credential flows.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ProfileResponse wraps the logged-in user's public profile.
type ProfileResponse struct {
	User *entity.PublicProfile `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	tok, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, err, "Unable to register user")
		return
	}
	h.writeJSON(w, http.StatusCreated, Response{Status: statusSuccess, Message: "Registration successful", Token: tok})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	tok, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.fail(w, err, "Unable to login")
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Message: "Login successful", Token: tok})
}

// ChangePassword requires an identity resolved by the auth middleware.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request, id Identity) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), id, req); err != nil {
		h.fail(w, err, "Unable to change password")
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Message: "Password changed successfully"})
}

func (h *Handler) LoggedUser(w http.ResponseWriter, r *http.Request, id Identity) {
	p, err := h.svc.Profile(r.Context(), id)
	if err != nil {
		h.fail(w, err, "Unable to load user")
		return
	}
	h.writeJSON(w, http.StatusOK, ProfileResponse{User: p})
}

func (h *Handler) SendResetPasswordEmail(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req); err != nil {
		h.fail(w, err, "Unable to send reset email")
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Message: "Password reset email sent successfully"})
}

// ResetPassword handles POST .../reset-password/{id}/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.svc.ResetPassword(r.Context(), r.PathValue("id"), r.PathValue("token"), req)
	if err != nil {
		h.fail(w, err, "Unable to reset password")
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Status: statusSuccess, Message: "Password reset successfully"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		h.writeJSON(w, http.StatusBadRequest, Response{Status: statusFailed, Message: "Invalid request body"})
		return false
	}
	return true
}

// fail maps a service error to a status code and client message. Anything
// unrecognised is logged and answered with internalMsg.
func (h *Handler) fail(w http.ResponseWriter, err error, internalMsg string) {
	status, msg := StatusFor(err)
	if status == http.StatusInternalServerError {
		msg = internalMsg
	}
	if status >= http.StatusInternalServerError {
		utilities.LogError(h.logger, internalMsg, err)
	} else {
		h.logger.Debugw("request rejected", "status", status, "err", err)
	}
	h.writeJSON(w, status, Response{Status: statusFailed, Message: msg})
}

// StatusFor returns the HTTP status and client message for a service error.
func StatusFor(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict, "Email already exists"
	case errors.Is(err, ErrBadCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized user"
	case errors.Is(err, ErrEmailNotFound):
		return http.StatusNotFound, "Email does not exist"
	case errors.Is(err, ErrInvalidToken):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, ErrPasswordRace):
		return http.StatusConflict, "Password was changed by another request, please retry"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
