package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "LEDGER_BACKEND", "SESSION_BACKEND", "LLM_PROVIDER", "LLM_MAX_ATTEMPTS", "CORS_ALLOWED_ORIGINS", "SESSION_TTL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LedgerBackend != "file" {
		t.Fatalf("expected file ledger by default, got %s", cfg.LedgerBackend)
	}
	if cfg.SessionBackend != "memory" {
		t.Fatalf("expected memory sessions by default, got %s", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 0 {
		t.Fatalf("expected sessions to never expire by default, got %s", cfg.SessionTTL)
	}
	if cfg.LLMProvider != "none" {
		t.Fatalf("expected llm provider none, got %s", cfg.LLMProvider)
	}
	if cfg.LLMMaxAttempts != 3 {
		t.Fatalf("expected 3 llm attempts, got %d", cfg.LLMMaxAttempts)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Fatalf("expected 30s llm timeout, got %s", cfg.LLMTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 4 {
		t.Fatalf("expected 4 default CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DefaultSessionID != "default-session" {
		t.Fatalf("expected default session id, got %s", cfg.DefaultSessionID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LEDGER_BACKEND", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "48h")
	t.Setenv("LLM_MAX_ATTEMPTS", "5")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.LedgerBackend != "postgres" {
		t.Fatalf("expected normalized ledger backend, got %q", cfg.LedgerBackend)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.SessionTTL != 48*time.Hour {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if cfg.LLMMaxAttempts != 5 {
		t.Fatalf("expected llm attempts override, got %d", cfg.LLMMaxAttempts)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected parsed CORS list, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{ClinicTimezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
	cfg.ClinicTimezone = "America/New_York"
	if cfg.Location().String() != "America/New_York" {
		t.Fatalf("expected New York location, got %s", cfg.Location())
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{LedgerBackend: "file", SessionBackend: "memory", LLMProvider: "none", EmailProvider: "none"}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.LedgerBackend = "postgres" }, wantErr: "DATABASE_URL"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.LedgerBackend = "s3" }, wantErr: "LEDGER_S3_BUCKET"},
		{name: "unknown ledger", mutate: func(c *Config) { c.LedgerBackend = "mongo" }, wantErr: "LEDGER_BACKEND"},
		{name: "redis without addr", mutate: func(c *Config) { c.SessionBackend = "redis" }, wantErr: "REDIS_ADDR"},
		{name: "gemini without key", mutate: func(c *Config) { c.LLMProvider = "gemini" }, wantErr: "GEMINI_API_KEY"},
		{name: "bedrock without model", mutate: func(c *Config) { c.LLMProvider = "bedrock" }, wantErr: "BEDROCK_MODEL_ID"},
		{name: "sendgrid without key", mutate: func(c *Config) {
			c.EmailProvider = "sendgrid"
			c.EmailFromAddress = "desk@clinic.test"
		}, wantErr: "SENDGRID_API_KEY"},
		{name: "ses without from", mutate: func(c *Config) { c.EmailProvider = "ses" }, wantErr: "EMAIL_FROM_ADDRESS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
