// Package main provides the BrightMinds API server.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/brightminds/internal/api"
	"github.com/good-yellow-bee/brightminds/internal/storage"
)

// DevJWTSecret is used when no secret is configured. It is only fit for
// local development.
const DevJWTSecret = "dev_secret_key_123"

// Config represents the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Verbose    bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	HTTPAddress      string    `yaml:"http_address"`        // default :5002
	CORSOrigins      []string  `yaml:"cors_origins"`        // empty allows any origin
	RateLimitPerIP   int       `yaml:"rate_limit_per_ip"`   // auth requests per minute
	RateLimitPerUser int       `yaml:"rate_limit_per_user"` // API requests per minute
	AnalysisDelay    string    `yaml:"analysis_delay"`      // e.g. "1.5s", "0s" disables
	TLS              TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the HTTP listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Type       string `yaml:"type"` // mongo or sqlite
	MongoURI   string `yaml:"mongo_uri"`
	SQLitePath string `yaml:"sqlite_path"`
}

// AuthConfig contains token and password settings.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	TokenTTL   string `yaml:"token_ttl"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

// ExtractionConfig points at the IEP extraction service.
type ExtractionConfig struct {
	URL     string `yaml:"url"` // empty disables /projects/extract-iep
	Timeout string `yaml:"timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // empty serves /metrics on the API listener
}

// LoadConfig loads configuration from a YAML file. Environment overrides
// are applied separately by ApplyEnv.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":5002"
	}
	if c.Server.AnalysisDelay == "" {
		c.Server.AnalysisDelay = "1.5s"
	}
	if c.Database.Type == "" {
		c.Database.Type = storage.BackendMongo
	}
	if c.Database.MongoURI == "" {
		c.Database.MongoURI = "mongodb://127.0.0.1:27017/brightminds"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/brightminds.db"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = DevJWTSecret
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "720h"
	}
	if c.Extraction.Timeout == "" {
		c.Extraction.Timeout = "60s"
	}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.Server.HTTPAddress = ":" + strings.TrimPrefix(v, ":")
	}
	if v := getenv("DB_TYPE"); v != "" {
		c.Database.Type = v
	}
	if v := getenv("MONGO_URI"); v != "" {
		c.Database.MongoURI = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("IEP_EXTRACTION_URL"); v != "" {
		c.Extraction.URL = v
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case storage.BackendMongo, storage.BackendSQLite:
	default:
		return fmt.Errorf("database.type must be mongo or sqlite, got %q", c.Database.Type)
	}
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	if c.Server.RateLimitPerIP < 0 || c.Server.RateLimitPerUser < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}

	durations := map[string]string{
		"server.analysis_delay": c.Server.AnalysisDelay,
		"auth.token_ttl":        c.Auth.TokenTTL,
		"extraction.timeout":    c.Extraction.Timeout,
	}
	for name, v := range durations {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if ttl, _ := time.ParseDuration(c.Auth.TokenTTL); ttl == 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

// DSN returns the connection string for the selected backend.
func (c *Config) DSN() string {
	if c.Database.Type == storage.BackendSQLite {
		return c.Database.SQLitePath
	}
	return c.Database.MongoURI
}

// APIConfig builds the HTTP API configuration. Call Validate first.
func (c *Config) APIConfig() *api.Config {
	delay, _ := time.ParseDuration(c.Server.AnalysisDelay)
	if delay == 0 {
		delay = -1 // zero means "use the default" to the API
	}
	ttl, _ := time.ParseDuration(c.Auth.TokenTTL)
	timeout, _ := time.ParseDuration(c.Extraction.Timeout)

	return &api.Config{
		Address:           c.Server.HTTPAddress,
		JWTSecret:         []byte(c.Auth.JWTSecret),
		TokenTTL:          ttl,
		BcryptCost:        c.Auth.BcryptCost,
		CORSOrigins:       c.Server.CORSOrigins,
		HTTPTLSEnabled:    c.Server.TLS.Enabled,
		HTTPTLSCertFile:   c.Server.TLS.CertFile,
		HTTPTLSKeyFile:    c.Server.TLS.KeyFile,
		RateLimitPerIP:    c.Server.RateLimitPerIP,
		RateLimitPerUser:  c.Server.RateLimitPerUser,
		AnalysisDelay:     delay,
		ExtractionURL:     c.Extraction.URL,
		ExtractionTimeout: timeout,
		MetricsRoute:      c.Metrics.Enabled && c.Metrics.Address == "",
		Verbose:           c.Verbose,
	}
}
