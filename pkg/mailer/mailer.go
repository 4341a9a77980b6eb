// Package mailer delivers outbound email. SMTPSender talks to a real relay via
// go-mail; LogSender only records that a message would have been sent and is
// used when no SMTP host is configured.
package mailer

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Message is a rendered email with an HTML body and a plain-text alternative.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a single message.
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// ConfigFromEnv reads SMTP settings from environment variables
func ConfigFromEnv() Config {
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	timeout := 10 * time.Second
	if d, err := time.ParseDuration(os.Getenv("MAIL_TIMEOUT")); err == nil && d > 0 {
		timeout = d
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "no-reply@localhost"
	}
	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     from,
		Timeout:  timeout,
	}
}

// New returns an SMTP sender when cfg.Host is set, otherwise a LogSender.
func New(cfg Config, logger *zap.SugaredLogger) (Sender, error) {
	if cfg.Host == "" {
		logger.Warn("SMTP_HOST not set; outgoing email will only be logged")
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg)
}

// LogSender drops messages after logging recipient and subject.
type LogSender struct {
	logger *zap.SugaredLogger
}

func NewLogSender(logger *zap.SugaredLogger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Infow("email not sent (log sender)", "to", msg.To, "subject", msg.Subject)
	return nil
}
