package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://craftserve.pl"

// Config holds settings persisted in ~/.csrv/config.yaml. Every field is optional.
type Config struct {
	BaseURL           string        `yaml:"base_url,omitempty"`
	Debug             bool          `yaml:"debug,omitempty"` // echo raw frames
	KeepaliveInterval string        `yaml:"keepalive_interval,omitempty"`
	ReceiveTimeout    string        `yaml:"receive_timeout,omitempty"`
	ReconnectDelay    string        `yaml:"reconnect_delay,omitempty"`
	ReconnectMaxDelay string        `yaml:"reconnect_max_delay,omitempty"` // > reconnect_delay enables doubling
	MaxErrors         int           `yaml:"max_errors,omitempty"`
	CommandRate       float64       `yaml:"command_rate,omitempty"` // commands per second
	CommandBurst      int           `yaml:"command_burst,omitempty"`
	Keyring           *bool         `yaml:"keyring,omitempty"`
	Log               LoggingConfig `yaml:"log,omitempty"`
}

type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// Timings is the parsed form of the duration fields.
type Timings struct {
	KeepaliveInterval time.Duration
	ReceiveTimeout    time.Duration
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		KeepaliveInterval: "2s",
		ReceiveTimeout:    "10s",
		ReconnectDelay:    "2s",
		ReconnectMaxDelay: "2s",
		MaxErrors:         3,
		CommandRate:       5,
		CommandBurst:      10,
		Log: LoggingConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables if present
	if v := os.Getenv("CSRV_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CSRV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if _, err := c.Timings(); err != nil {
		return err
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max_errors must not be negative")
	}
	if c.CommandRate <= 0 {
		return fmt.Errorf("command_rate must be positive")
	}
	if c.CommandBurst < 1 {
		return fmt.Errorf("command_burst must be at least 1")
	}
	return nil
}

// Timings parses the duration fields.
func (c *Config) Timings() (Timings, error) {
	var t Timings
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"keepalive_interval", c.KeepaliveInterval, &t.KeepaliveInterval},
		{"receive_timeout", c.ReceiveTimeout, &t.ReceiveTimeout},
		{"reconnect_delay", c.ReconnectDelay, &t.ReconnectDelay},
		{"reconnect_max_delay", c.ReconnectMaxDelay, &t.ReconnectMaxDelay},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timings{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if d <= 0 {
			return Timings{}, fmt.Errorf("%s must be positive", f.name)
		}
		*f.dst = d
	}
	if t.ReconnectMaxDelay < t.ReconnectDelay {
		t.ReconnectMaxDelay = t.ReconnectDelay
	}
	return t, nil
}

// KeyringEnabled reports whether secrets may be read from the OS keyring. Defaults to true.
func (c *Config) KeyringEnabled() bool {
	return c.Keyring == nil || *c.Keyring
}
