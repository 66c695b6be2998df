package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL        = "http://localhost:8080/api"
	DefaultRequestTimeout = 30 * time.Second
	DefaultIdleTimeout    = 30 * time.Second
)

// Config holds client configuration.
// Priority (highest first): flags, environment, config file, defaults.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	CachePath      string        `yaml:"cache_path"`
	Turns          string        `yaml:"turns"` // "decomposed" or "merged"
	Verbose        bool          `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	cfg := Config{
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		Turns:          LayoutDecomposed.String(),
	}
	if path, err := DefaultCachePath(); err == nil {
		cfg.CachePath = path
	}
	return cfg
}

// DefaultConfigPath returns ~/.config/branch-chat/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "branch-chat", "config.yaml"), nil
}

// DefaultCachePath returns ~/.branch-chat-cache/snapshots.db
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".branch-chat-cache", "snapshots.db"), nil
}

// LoadConfig reads the config file (the default location when path is
// empty) and applies environment overrides. A missing default file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultConfigPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, &ConfigError{Source: path, Field: "yaml", Err: err}
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist) && !explicit:
			LogDebug("No config file at %s, using defaults", path)
		default:
			return cfg, &ConfigError{Source: path, Field: "file", Err: err}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BRANCH_CHAT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("BRANCH_CHAT_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Source: "env", Field: "BRANCH_CHAT_IDLE_TIMEOUT", Err: err}
		}
		c.IdleTimeout = d
	}
	if v := os.Getenv("BRANCH_CHAT_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Source: "env", Field: "BRANCH_CHAT_REQUEST_TIMEOUT", Err: err}
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("BRANCH_CHAT_CACHE"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("BRANCH_CHAT_TURNS"); v != "" {
		c.Turns = v
	}
	if os.Getenv("BRANCH_CHAT_DEBUG") == "1" {
		c.Verbose = true
	}
	return nil
}

// Validate checks the configuration values
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConfigError{Source: "config", Field: "base_url", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Source: "config", Field: "base_url", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if c.IdleTimeout <= 0 {
		return &ConfigError{Source: "config", Field: "idle_timeout", Err: fmt.Errorf("must be positive, got %s", c.IdleTimeout)}
	}
	if c.RequestTimeout < 0 {
		return &ConfigError{Source: "config", Field: "request_timeout", Err: fmt.Errorf("must not be negative, got %s", c.RequestTimeout)}
	}
	if _, ok := ParseTurnLayout(c.Turns); !ok {
		return &ConfigError{Source: "config", Field: "turns", Err: fmt.Errorf("unknown layout %q (supported: decomposed, merged)", c.Turns)}
	}
	return nil
}

// Layout returns the configured turn layout
func (c Config) Layout() TurnLayout {
	layout, _ := ParseTurnLayout(c.Turns)
	return layout
}

// Save writes the configuration as YAML
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &ConfigError{Source: path, Field: "file", Err: err}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return &ConfigError{Source: path, Field: "yaml", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &ConfigError{Source: path, Field: "file", Err: err}
	}
	return nil
}
