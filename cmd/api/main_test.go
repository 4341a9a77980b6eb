package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/repo"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "--addr"} {
		assert.Contains(t, output, sub)
	}
}

func TestListenAddr(t *testing.T) {
	t.Cleanup(func() { addrFlag = "" })

	t.Setenv("HTTP_ADDR", "")
	addrFlag = ""
	assert.Equal(t, defaultAddr, listenAddr())

	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	assert.Equal(t, "127.0.0.1:9000", listenAddr())

	addrFlag = ":7000"
	assert.Equal(t, ":7000", listenAddr())
}

func TestOpenStore_Memory(t *testing.T) {
	s, closeFn, err := openStore(context.Background(), storeMemory, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &repo.MemoryUserRepo{}, s)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, _, err := openStore(context.Background(), "redis", zap.NewNop().Sugar())
	assert.ErrorContains(t, err, "unknown USER_STORE")
}
