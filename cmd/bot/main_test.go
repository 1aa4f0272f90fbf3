package main

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FyersSentinel/internal/apperr"
	"FyersSentinel/internal/config"
)

func staticConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATA_SOURCE", "static")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("REDIS_ADDR", "")
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	cfg.Credentials.Path = filepath.Join(dir, "auth_tokens.json")
	cfg.Schedule.MaxIterations = 1
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_StaticSingleIteration(t *testing.T) {
	assert.NoError(t, run(staticConfig(t), zerolog.Nop(), false))
}

func TestRun_ReturnsInitErrors(t *testing.T) {
	cfg := staticConfig(t)
	cfg.Credentials.Backend = "redis"
	cfg.Credentials.RedisAddr = "127.0.0.1:1"

	err := run(cfg, zerolog.Nop(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)
}
