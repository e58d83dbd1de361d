package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration. Values come from an optional YAML
// file, with PORT and DB_PATH environment overrides taking precedence.
type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// StoreTimeoutMs bounds a single store lookup or mutation apply.
	StoreTimeoutMs int `yaml:"store_timeout_ms"`
}

func Default() *Config {
	return &Config{
		Port:           "8080",
		DBPath:         "valpay.db",
		StoreTimeoutMs: 30000,
	}
}

// StoreTimeout returns the store timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}

// Load reads the YAML file at path when it exists, applies environment
// overrides, and validates the result. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: port must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path must not be empty")
	}
	if c.StoreTimeoutMs <= 0 {
		return fmt.Errorf("config: store_timeout_ms must be positive, got %d", c.StoreTimeoutMs)
	}
	return nil
}
