package user

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/token"
)

type Config struct {
	Secret        []byte
	BcryptCost    int
	SessionTTL    time.Duration
	ResetTTL      time.Duration
	ResetLinkBase string
	StoreTimeout  time.Duration
	MailTimeout   time.Duration
}

// ConfigFromEnv reads credential settings from environment variables.
// JWT_SECRET_KEY is mandatory.
func ConfigFromEnv() (Config, error) {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET_KEY is required")
	}
	if len(secret) < token.MinSecretLen {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY must be at least %d bytes", token.MinSecretLen)
	}
	cost := DefaultBcryptCost
	if n, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil && n > 0 {
		cost = n
	}
	base := os.Getenv("RESET_LINK_BASE_URL")
	if base == "" {
		frontend := os.Getenv("FRONTEND_URL")
		if frontend == "" {
			frontend = "http://localhost:3000"
		}
		base = strings.TrimRight(frontend, "/") + "/reset-password"
	}
	return Config{
		Secret:        []byte(secret),
		BcryptCost:    cost,
		SessionTTL:    durationEnv("SESSION_TOKEN_TTL", token.DefaultSessionTTL),
		ResetTTL:      durationEnv("RESET_TOKEN_TTL", token.DefaultResetTTL),
		ResetLinkBase: strings.TrimRight(base, "/"),
		StoreTimeout:  durationEnv("STORE_TIMEOUT", 5*time.Second),
		MailTimeout:   durationEnv("MAIL_TIMEOUT", 10*time.Second),
	}, nil
}

func durationEnv(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return def
}
