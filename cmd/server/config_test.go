package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate defaults: %v", err)
	}
	if cfg.Server.HTTPAddress != ":5002" || cfg.Database.Type != "mongo" || cfg.Auth.JWTSecret != DevJWTSecret {
		t.Errorf("defaults = %+v", cfg)
	}

	apiCfg := cfg.APIConfig()
	if apiCfg.TokenTTL != 30*24*time.Hour || apiCfg.AnalysisDelay != 1500*time.Millisecond || apiCfg.ExtractionTimeout != time.Minute {
		t.Errorf("api config = %+v", apiCfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":               "8081",
		"DB_TYPE":            "sqlite",
		"SQLITE_PATH":        "/tmp/bm.db",
		"JWT_SECRET":         "s3cret",
		"IEP_EXTRACTION_URL": "http://extract:8000/extract",
		"CORS_ORIGINS":       "https://app.example.com, ,http://localhost:5173",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Server.HTTPAddress != ":8081" {
		t.Errorf("address = %q", cfg.Server.HTTPAddress)
	}
	if cfg.DSN() != "/tmp/bm.db" {
		t.Errorf("dsn = %q", cfg.DSN())
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://localhost:5173" {
		t.Errorf("cors = %v", cfg.Server.CORSOrigins)
	}
	if got := cfg.APIConfig(); string(got.JWTSecret) != "s3cret" || got.ExtractionURL != env["IEP_EXTRACTION_URL"] {
		t.Errorf("api config = %+v", got)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := `
server:
  http_address: ":7000"
  analysis_delay: "0s"
database:
  type: sqlite
  sqlite_path: /var/lib/brightminds/bm.db
metrics:
  enabled: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.ApplyEnv(func(k string) string {
		if k == "PORT" {
			return "9000"
		}
		return ""
	})

	if cfg.Server.HTTPAddress != ":9000" {
		t.Errorf("env should override file: %q", cfg.Server.HTTPAddress)
	}
	apiCfg := cfg.APIConfig()
	if apiCfg.AnalysisDelay >= 0 {
		t.Errorf("0s delay should disable the delay, got %v", apiCfg.AnalysisDelay)
	}
	if !apiCfg.MetricsRoute {
		t.Error("metrics without a dedicated address should be served on the API listener")
	}
}

func TestConfigValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown database", func(c *Config) { c.Database.Type = "postgres" }},
		{"tls without cert", func(c *Config) { c.Server.TLS.Enabled = true }},
		{"bad delay", func(c *Config) { c.Server.AnalysisDelay = "soon" }},
		{"negative timeout", func(c *Config) { c.Extraction.Timeout = "-1s" }},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = "0s" }},
		{"bcrypt cost", func(c *Config) { c.Auth.BcryptCost = 40 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitPerIP = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
}
