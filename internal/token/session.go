package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/utilities"
)

// SessionTokens issues HS256 session tokens signed with the global secret.
// There is no revocation list; a token lives until it expires.
type SessionTokens struct {
	secret []byte
	opts   options
}

func NewSessionTokens(secret []byte, opts ...Option) *SessionTokens {
	return &SessionTokens{secret: secret, opts: buildOptions(opts)}
}

// Issue returns a token asserting userID for ttl.
func (s *SessionTokens) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("issue session token: empty subject")
	}
	now := s.opts.now()
	claims := jwt.RegisteredClaims{
		ID:        utilities.NewSnowflakeID(),
		Subject:   userID,
		Audience:  jwt.ClaimStrings{SessionAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok, err := sign(claims, s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return tok, nil
}

// Verify returns the subject of a valid token, or ErrInvalid.
func (s *SessionTokens) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := s.opts.parser(SessionAudience).ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
