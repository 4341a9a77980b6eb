package utilities

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewKSUID(t *testing.T) {
	a, b := NewKSUID(), NewKSUID()
	assert.NotEqual(t, a, b)
	_, err := ksuid.Parse(a)
	assert.NoError(t, err)
}

func TestNewSnowflakeID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewSnowflakeID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.NotEmpty(t, NewSnowflakeIDWithNode(3))
	// out of range node falls back to a KSUID
	_, err := ksuid.Parse(NewSnowflakeIDWithNode(1 << 20))
	assert.NoError(t, err)
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("bogus"))
}

func TestLoggerConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_ROTATE_HOURS", "6")
	t.Setenv("LOG_MAX_AGE_DAYS", "")

	cfg := ConfigFromEnv()
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.Dev)
	assert.Equal(t, 6*time.Hour, cfg.RotateEvery)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)

	t.Setenv("LOG_DEV", "1")
	assert.Equal(t, "debug", ConfigFromEnv().Level)
}

func TestInit_WithRotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "credential.log")
	lg, err := Init(Config{Level: "info", File: file, RotateEvery: time.Hour, MaxAge: time.Hour})
	require.NoError(t, err)

	lg.Info("hello")
	_ = lg.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestLogError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core).Sugar()

	LogError(logger, "plain", errors.New("boom"))
	LogError(logger, "wrapped", oops.In("credential").Code("internal").With("operation", "create user").Wrap(errors.New("boom")))

	require.Equal(t, 2, logs.Len())
	plain := logs.All()[0].ContextMap()
	assert.NotContains(t, plain, "code")

	wrapped := logs.All()[1].ContextMap()
	assert.Equal(t, "internal", wrapped["code"])
	assert.Equal(t, "credential", wrapped["domain"])
	assert.Contains(t, wrapped, "context")
}
