package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://plug.dj", cfg.BaseURL)
	assert.Equal(t, "wss://shalamar.plug.dj/socket", cfg.SocketURL)
	assert.Equal(t, 128, cfg.AuthTokenLength)
	assert.Equal(t, 60, cfg.CSRFTokenLength)
	assert.Equal(t, 60*time.Second, cfg.KeepAliveGrace)
	assert.Equal(t, 256, cfg.ChatLimit)
	assert.Equal(t, 600*time.Millisecond, cfg.ChatThrottle)
	assert.Equal(t, 256, cfg.ChatCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, 5, cfg.GatewayConcurrency)
	assert.Equal(t, 5*time.Second, cfg.RetryBackoff)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Empty(t, cfg.DebugAddr)
}
