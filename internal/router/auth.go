package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/utilities"
)

// Authenticator resolves a bearer session token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (user.Identity, error)
}

// AuthenticatedHandlerFunc is a handler that receives the verified caller
// as an explicit argument.
type AuthenticatedHandlerFunc func(w http.ResponseWriter, r *http.Request, id user.Identity)

// Authenticated verifies the Authorization header and calls next with the
// resulting identity. Requests without a valid session get 401.
func Authenticated(auth Authenticator, logger *zap.SugaredLogger, next AuthenticatedHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := bearerToken(r)
		if !ok {
			writeFailed(w, http.StatusUnauthorized, "Unauthorized user, no token")
			return
		}
		id, err := auth.Authenticate(r.Context(), bearer)
		if err != nil {
			if errors.Is(err, user.ErrUnauthorized) {
				writeFailed(w, http.StatusUnauthorized, "Unauthorized user")
				return
			}
			utilities.LogError(logger, "authenticate request", err)
			status, msg := user.StatusFor(err)
			if status == http.StatusInternalServerError {
				msg = "Unable to authenticate"
			}
			writeFailed(w, status, msg)
			return
		}
		next(w, r, id)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, tok, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func writeFailed(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(user.Response{Status: "failed", Message: msg})
}
