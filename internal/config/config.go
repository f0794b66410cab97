package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the service. All values are static after
// startup; components receive the sub-structs they need at construction.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Chat      ChatConfig      `yaml:"chat"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type WebSocketConfig struct {
	SendBuffer       int           `yaml:"send_buffer"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// RateLimitConfig describes the per-connection token bucket: a burst of
// MaxTokens, refilled by RefillRate tokens every RefillInterval.
type RateLimitConfig struct {
	MaxTokens      int           `yaml:"max_tokens"`
	RefillRate     int           `yaml:"refill_rate"`
	RefillInterval time.Duration `yaml:"refill_interval"`
}

type ChatConfig struct {
	MaxHistory     int `yaml:"max_history"`
	MaxUsernameLen int `yaml:"max_username_len"`
	MaxMessageLen  int `yaml:"max_message_len"`
}

type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the configuration the service runs with when nothing
// is overridden.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			SendBuffer:       64,
			WriteTimeout:     10 * time.Second,
			HandshakeTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MaxTokens:      10,
			RefillRate:     2,
			RefillInterval: time.Second,
		},
		Chat: ChatConfig{
			MaxHistory:     50,
			MaxUsernameLen: 20,
			MaxMessageLen:  500,
		},
		Heartbeat: HeartbeatConfig{
			Interval: 30 * time.Second,
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path (if non-empty), overlaid by CHATRELAY_* environment
// variables. The result is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fileConfig mirrors Config for YAML parsing. Durations are strings in
// the file ("500ms", "30s") and pointers distinguish "absent" from zero.
type fileConfig struct {
	HTTP struct {
		Host         string `yaml:"host"`
		Port         *int   `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"http"`
	WebSocket struct {
		SendBuffer       *int   `yaml:"send_buffer"`
		WriteTimeout     string `yaml:"write_timeout"`
		HandshakeTimeout string `yaml:"handshake_timeout"`
	} `yaml:"websocket"`
	RateLimit struct {
		MaxTokens      *int   `yaml:"max_tokens"`
		RefillRate     *int   `yaml:"refill_rate"`
		RefillInterval string `yaml:"refill_interval"`
	} `yaml:"rate_limit"`
	Chat struct {
		MaxHistory     *int `yaml:"max_history"`
		MaxUsernameLen *int `yaml:"max_username_len"`
		MaxMessageLen  *int `yaml:"max_message_len"`
	} `yaml:"chat"`
	Heartbeat struct {
		Interval string `yaml:"interval"`
	} `yaml:"heartbeat"`
}

// mergeFile overlays the YAML file at path onto cfg. ${VAR} references in
// the file are expanded from the environment before parsing.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var f fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if f.HTTP.Host != "" {
		c.HTTP.Host = f.HTTP.Host
	}
	setInt(&c.HTTP.Port, f.HTTP.Port)
	setDuration(&c.HTTP.ReadTimeout, f.HTTP.ReadTimeout)
	setDuration(&c.HTTP.WriteTimeout, f.HTTP.WriteTimeout)

	setInt(&c.WebSocket.SendBuffer, f.WebSocket.SendBuffer)
	setDuration(&c.WebSocket.WriteTimeout, f.WebSocket.WriteTimeout)
	setDuration(&c.WebSocket.HandshakeTimeout, f.WebSocket.HandshakeTimeout)

	setInt(&c.RateLimit.MaxTokens, f.RateLimit.MaxTokens)
	setInt(&c.RateLimit.RefillRate, f.RateLimit.RefillRate)
	setDuration(&c.RateLimit.RefillInterval, f.RateLimit.RefillInterval)

	setInt(&c.Chat.MaxHistory, f.Chat.MaxHistory)
	setInt(&c.Chat.MaxUsernameLen, f.Chat.MaxUsernameLen)
	setInt(&c.Chat.MaxMessageLen, f.Chat.MaxMessageLen)

	setDuration(&c.Heartbeat.Interval, f.Heartbeat.Interval)
	return nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src string) {
	if src == "" {
		return
	}
	if d, err := time.ParseDuration(src); err == nil {
		*dst = d
	}
}

// applyEnv overrides individual fields from the environment. Every key in
// the file has a CHATRELAY_* counterpart. Unparseable values are ignored,
// keeping the previous value.
func (c *Config) applyEnv() {
	if v := os.Getenv("CHATRELAY_HTTP_HOST"); v != "" {
		c.HTTP.Host = v
	}
	envInt(&c.HTTP.Port, "CHATRELAY_HTTP_PORT")
	envDuration(&c.HTTP.ReadTimeout, "CHATRELAY_HTTP_READ_TIMEOUT")
	envDuration(&c.HTTP.WriteTimeout, "CHATRELAY_HTTP_WRITE_TIMEOUT")

	envInt(&c.WebSocket.SendBuffer, "CHATRELAY_WS_SEND_BUFFER")
	envDuration(&c.WebSocket.WriteTimeout, "CHATRELAY_WS_WRITE_TIMEOUT")
	envDuration(&c.WebSocket.HandshakeTimeout, "CHATRELAY_WS_HANDSHAKE_TIMEOUT")

	envInt(&c.RateLimit.MaxTokens, "CHATRELAY_RATE_MAX_TOKENS")
	envInt(&c.RateLimit.RefillRate, "CHATRELAY_RATE_REFILL_RATE")
	envDuration(&c.RateLimit.RefillInterval, "CHATRELAY_RATE_REFILL_INTERVAL")

	envInt(&c.Chat.MaxHistory, "CHATRELAY_CHAT_MAX_HISTORY")
	envInt(&c.Chat.MaxUsernameLen, "CHATRELAY_CHAT_MAX_USERNAME_LEN")
	envInt(&c.Chat.MaxMessageLen, "CHATRELAY_CHAT_MAX_MESSAGE_LEN")

	envDuration(&c.Heartbeat.Interval, "CHATRELAY_HEARTBEAT_INTERVAL")
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("http host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket send buffer must be positive")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket write timeout must be positive")
	}
	if c.WebSocket.HandshakeTimeout <= 0 {
		return fmt.Errorf("websocket handshake timeout must be positive")
	}
	if c.RateLimit.MaxTokens <= 0 {
		return fmt.Errorf("rate limit max tokens must be positive")
	}
	if c.RateLimit.RefillRate <= 0 {
		return fmt.Errorf("rate limit refill rate must be positive")
	}
	if c.RateLimit.RefillInterval <= 0 {
		return fmt.Errorf("rate limit refill interval must be positive")
	}
	if c.Chat.MaxHistory <= 0 {
		return fmt.Errorf("chat max history must be positive")
	}
	if c.Chat.MaxUsernameLen <= 0 {
		return fmt.Errorf("chat max username length must be positive")
	}
	if c.Chat.MaxMessageLen <= 0 {
		return fmt.Errorf("chat max message length must be positive")
	}
	if c.Heartbeat.Interval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	return nil
}
