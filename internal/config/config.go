// Package config loads server configuration from an optional YAML file
// with environment-variable overrides. Environment always wins.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted for storage_backend.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds the server configuration.
type Config struct {
	Port           string `yaml:"port"`
	StorageBackend string `yaml:"storage_backend"`
	DatabasePath   string `yaml:"database_path"`
	StatePath      string `yaml:"state_path"`
	JWTSecret      string `yaml:"jwt_secret"`
	CatalogURL     string `yaml:"catalog_url"`
	CookieSecure   bool   `yaml:"cookie_secure"`
	StrictSessions bool   `yaml:"strict_sessions"`
}

func defaults() Config {
	return Config{
		Port:           "8080",
		StorageBackend: BackendSQLite,
		DatabasePath:   "tienda.db",
		StatePath:      "tienda-state.json",
		CookieSecure:   true,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Optional file; env and defaults carry the config.
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(dst *bool, key string) {
		switch os.Getenv(key) {
		case "true":
			*dst = true
		case "false":
			*dst = false
		}
	}

	setString(&cfg.Port, "PORT")
	setString(&cfg.StorageBackend, "STORAGE_BACKEND")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.StatePath, "STATE_PATH")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.CatalogURL, "CATALOG_URL")
	setBool(&cfg.CookieSecure, "COOKIE_SECURE")
	setBool(&cfg.StrictSessions, "STRICT_SESSIONS")
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required (JWT_SECRET)")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters for HMAC-SHA256")
	}
	if c.StorageBackend != BackendSQLite && c.StorageBackend != BackendFile {
		return fmt.Errorf("unknown storage_backend %q", c.StorageBackend)
	}
	return nil
}
