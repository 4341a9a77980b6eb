// Package token mints and verifies the two stateless bearer tokens the
// credential service hands out: long-lived session tokens and short-lived
// password reset tokens. Neither is stored server-side.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is the only failure either verifier reports. Malformed input,
// signature mismatch, wrong audience and expiry are not distinguished.
var ErrInvalid = errors.New("invalid or expired token")

const (
	SessionAudience = "session"
	ResetAudience   = "password-reset"

	DefaultSessionTTL = 5 * 24 * time.Hour
	DefaultResetTTL   = 15 * time.Minute

	// MinSecretLen is the shortest global secret accepted at startup.
	MinSecretLen = 32
)

type options struct {
	now func() time.Time
}

// Option tunes an issuer/verifier.
type Option func(*options)

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) parser(audience string) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(o.now),
	)
}

func sign(claims jwt.RegisteredClaims, key []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
