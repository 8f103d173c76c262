package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"finchat/internal/domain"
)

// AgentConfig holds the connection settings for the remote agent.
type AgentConfig struct {
	Endpoint          string `yaml:"endpoint"` // ws:// or wss:// base URL
	UserID            string `yaml:"user_id"`
	Token             string `yaml:"token,omitempty"`
	Theme             string `yaml:"theme"`
	Model             string `yaml:"model"`
	HeartbeatInterval string `yaml:"heartbeat_interval"` // duration string (default: 25s)
	ReconnectBase     string `yaml:"reconnect_base"`     // duration string (default: 1s)
	MaxReconnects     int    `yaml:"max_reconnects"`     // 0 = default (10), negative disables auto-reconnect
}

// StoreConfig selects the log persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "sqlite" or "memory"
	Path    string `yaml:"path"`    // sqlite database path
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// Config is the top-level application configuration.
type Config struct {
	Agent  AgentConfig  `yaml:"agent"`
	Store  StoreConfig  `yaml:"store"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a YAML configuration file, then applies
// environment overrides (FINCHAT_ENDPOINT, FINCHAT_USER_ID,
// FINCHAT_TOKEN).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigLoad, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfigLoad, path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Agent.Endpoint == "" {
		c.Agent.Endpoint = "ws://localhost:8080"
	}
	if c.Agent.Theme == "" {
		c.Agent.Theme = "light"
	}
	if c.Agent.HeartbeatInterval == "" {
		c.Agent.HeartbeatInterval = "25s"
	}
	if c.Agent.ReconnectBase == "" {
		c.Agent.ReconnectBase = "1s"
	}
	if c.Agent.MaxReconnects == 0 {
		c.Agent.MaxReconnects = 10
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.Path == "" {
		c.Store.Path = "finchat.db"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stderr"
	}
	if c.Tracer.Exporter == "" {
		c.Tracer.Exporter = "noop"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINCHAT_ENDPOINT"); v != "" {
		c.Agent.Endpoint = v
	}
	if v := os.Getenv("FINCHAT_USER_ID"); v != "" {
		c.Agent.UserID = v
	}
	if v := os.Getenv("FINCHAT_TOKEN"); v != "" {
		c.Agent.Token = v
	}
}

// Validate checks field consistency.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Agent.HeartbeatInterval); err != nil {
		return fmt.Errorf("agent.heartbeat_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Agent.ReconnectBase); err != nil {
		return fmt.Errorf("agent.reconnect_base: %w", err)
	}
	switch c.Store.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store.backend must be sqlite or memory, got %q", c.Store.Backend)
	}
	return nil
}

// Heartbeat returns the parsed heartbeat interval.
func (c *AgentConfig) Heartbeat() time.Duration {
	d, err := time.ParseDuration(c.HeartbeatInterval)
	if err != nil {
		return 25 * time.Second
	}
	return d
}

// Backoff returns the parsed reconnect base delay.
func (c *AgentConfig) Backoff() time.Duration {
	d, err := time.ParseDuration(c.ReconnectBase)
	if err != nil {
		return time.Second
	}
	return d
}
