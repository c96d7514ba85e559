package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "pos.db", cfg.DBPath)
	assert.Equal(t, 8*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.InvoiceCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address())
	assert.Empty(t, cfg.DBPath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}
