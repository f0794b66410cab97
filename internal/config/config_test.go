package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 2, cfg.RateLimit.RefillRate)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 50, cfg.Chat.MaxHistory)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat.Interval)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"empty host", func(c *Config) { c.HTTP.Host = "" }},
		{"zero max tokens", func(c *Config) { c.RateLimit.MaxTokens = 0 }},
		{"negative refill rate", func(c *Config) { c.RateLimit.RefillRate = -1 }},
		{"zero refill interval", func(c *Config) { c.RateLimit.RefillInterval = 0 }},
		{"zero history", func(c *Config) { c.Chat.MaxHistory = 0 }},
		{"zero username length", func(c *Config) { c.Chat.MaxUsernameLen = 0 }},
		{"zero heartbeat", func(c *Config) { c.Heartbeat.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  port: 9090
rate_limit:
  max_tokens: 5
  refill_interval: 500ms
chat:
  max_message_len: 200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 500*time.Millisecond, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 200, cfg.Chat.MaxMessageLen)
	// Untouched fields keep defaults.
	assert.Equal(t, 50, cfg.Chat.MaxHistory)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHATRELAY_HTTP_PORT", "7000")
	t.Setenv("CHATRELAY_RATE_MAX_TOKENS", "3")
	t.Setenv("CHATRELAY_HEARTBEAT_INTERVAL", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat.Interval)
}

func TestEnvCoversEveryKey(t *testing.T) {
	t.Setenv("CHATRELAY_HTTP_HOST", "127.0.0.1")
	t.Setenv("CHATRELAY_HTTP_READ_TIMEOUT", "15s")
	t.Setenv("CHATRELAY_HTTP_WRITE_TIMEOUT", "16s")
	t.Setenv("CHATRELAY_WS_SEND_BUFFER", "128")
	t.Setenv("CHATRELAY_WS_WRITE_TIMEOUT", "7s")
	t.Setenv("CHATRELAY_WS_HANDSHAKE_TIMEOUT", "8s")
	t.Setenv("CHATRELAY_RATE_REFILL_RATE", "4")
	t.Setenv("CHATRELAY_RATE_REFILL_INTERVAL", "250ms")
	t.Setenv("CHATRELAY_CHAT_MAX_HISTORY", "25")
	t.Setenv("CHATRELAY_CHAT_MAX_USERNAME_LEN", "32")
	t.Setenv("CHATRELAY_CHAT_MAX_MESSAGE_LEN", "1000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 16*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 128, cfg.WebSocket.SendBuffer)
	assert.Equal(t, 7*time.Second, cfg.WebSocket.WriteTimeout)
	assert.Equal(t, 8*time.Second, cfg.WebSocket.HandshakeTimeout)
	assert.Equal(t, 4, cfg.RateLimit.RefillRate)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 25, cfg.Chat.MaxHistory)
	assert.Equal(t, 32, cfg.Chat.MaxUsernameLen)
	assert.Equal(t, 1000, cfg.Chat.MaxMessageLen)
}

func TestEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("CHATRELAY_HTTP_PORT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}
