// Package config loads bridge settings from an optional YAML file,
// applies defaults, and honors environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the socket endpoint and client timeouts.
const (
	DefaultHost               = "localhost"
	DefaultPort               = 9877
	DefaultDialTimeoutSeconds = 5
	DefaultReadTimeoutSeconds = 30
)

// Environment variables that override file settings.
const (
	EnvHost = "GIMP_MCP_HOST"
	EnvPort = "GIMP_MCP_PORT"
)

// Config holds the shared settings of the listener and the bridge
// client.
type Config struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	DialTimeoutSeconds int    `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds int    `yaml:"read_timeout_seconds"`
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		DialTimeoutSeconds: DefaultDialTimeoutSeconds,
		ReadTimeoutSeconds: DefaultReadTimeoutSeconds,
	}
}

// Load reads path, merges it over the defaults, and applies env
// overrides. A missing file is not an error: defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return nil, fmt.Errorf("loading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			cfg.fillDefaults()
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DialTimeoutSeconds == 0 {
		c.DialTimeoutSeconds = DefaultDialTimeoutSeconds
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = DefaultReadTimeoutSeconds
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DialTimeoutSeconds < 0 || c.ReadTimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}

// Addr renders the host:port endpoint.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DialTimeout returns the connection-establishment bound.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// ReadTimeout returns the per-chunk response read bound.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}
