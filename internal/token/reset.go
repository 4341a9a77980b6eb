package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
)

const resetKeyLabel = "password-reset"

// ResetTokens issues password reset tokens. Each token is signed with a key
// derived from the global secret and the user's current credential state, so
// any password write invalidates every outstanding token for that user.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	opts   options
}

func NewResetTokens(secret []byte, ttl time.Duration, opts ...Option) *ResetTokens {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetTokens{secret: secret, ttl: ttl, opts: buildOptions(opts)}
}

// TTL reports how long issued tokens stay valid.
func (r *ResetTokens) TTL() time.Duration { return r.ttl }

func (r *ResetTokens) Issue(u *entity.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", fmt.Errorf("issue reset token: empty subject")
	}
	now := r.opts.now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		Audience:  jwt.ClaimStrings{ResetAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
	}
	tok, err := sign(claims, r.keyFor(u))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return tok, nil
}

// Verify checks raw against the live record u. The key is rebuilt from u, the
// embedded subject only has to agree with it.
func (r *ResetTokens) Verify(u *entity.User, raw string) error {
	if u == nil || u.ID == "" {
		return ErrInvalid
	}
	claims := &jwt.RegisteredClaims{}
	_, err := r.opts.parser(ResetAudience).ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return r.keyFor(u), nil
	})
	if err != nil {
		return ErrInvalid
	}
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(u.ID)) != 1 {
		return ErrInvalid
	}
	return nil
}

func (r *ResetTokens) keyFor(u *entity.User) []byte {
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(resetKeyLabel))
	mac.Write([]byte{0})
	mac.Write([]byte(u.ID))
	mac.Write([]byte{0})
	mac.Write(strconv.AppendInt(nil, u.CredentialVersion, 10))
	mac.Write([]byte{0})
	mac.Write([]byte(u.PasswordHash))
	return mac.Sum(nil)
}
