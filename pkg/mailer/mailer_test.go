package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "EMAIL_FROM", "MAIL_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := ConfigFromEnv()
	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "no-reply@localhost", cfg.From)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_FROM", "auth@example.com")
	t.Setenv("MAIL_TIMEOUT", "3s")
	cfg := ConfigFromEnv()
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 2525, cfg.Port)
	assert.Equal(t, "auth@example.com", cfg.From)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestNew_PicksSender(t *testing.T) {
	logger := zap.NewNop().Sugar()

	s, err := New(Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = New(Config{Host: "smtp.example.com", Port: 587, From: "a@example.com", Timeout: time.Second}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)
}

func TestLogSender_Deliver(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core).Sugar())

	err := s.Deliver(context.Background(), Message{To: "a@b.com", Subject: "Password Reset Link", HTML: "<p>secret link</p>"})
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "a@b.com", entry.ContextMap()["to"])
	assert.NotContains(t, entry.Message, "secret link")
}

func TestSMTPSender_Build(t *testing.T) {
	s, err := NewSMTPSender(Config{Host: "smtp.example.com", Port: 587, From: "auth@example.com", Timeout: time.Second})
	require.NoError(t, err)

	m, err := s.build(Message{To: "a@b.com", Subject: "Password Reset Link", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)

	rcpts, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, rcpts)
	assert.Equal(t, []string{"Password Reset Link"}, m.GetGenHeader(mail.HeaderSubject))

	_, err = s.build(Message{To: "not an address", Subject: "x"})
	assert.Error(t, err)
}

func TestSMTPSender_DeliverUnreachable(t *testing.T) {
	s, err := NewSMTPSender(Config{Host: "127.0.0.1", Port: 1, From: "auth@example.com", Timeout: time.Second})
	require.NoError(t, err)

	err = s.Deliver(context.Background(), Message{To: "a@b.com", Subject: "x", HTML: "y"})
	assert.Error(t, err)
}
