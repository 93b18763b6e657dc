package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"HTTP_ADDR", "HTTP_READ_TIMEOUT_SEC", "HTTP_WRITE_TIMEOUT_SEC", "HTTP_SHUTDOWN_TIMEOUT_SEC", "CORS_ORIGINS",
	"STORE_BACKEND", "DATABASE_URL", "DATABASE_DRIVER", "SQLITE_PATH",
	"MOD_PASSWORD", "AUTH_PASSWORD_HASHER", "AUTH_PASSWORD_PEPPER", "AUTH_SESSION_TTL_SEC",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "COMPANION_TIMEOUT_SEC",
	"AUDIT_LOG_FILE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default HTTP addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read timeout 10s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 60*time.Second {
		t.Fatalf("expected default write timeout 60s, got %v", cfg.HTTP.WriteTimeout)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected default CORS origins: %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.SQLitePath != "./data/mental_platform.db" {
		t.Fatalf("unexpected default store config: %+v", cfg.Store)
	}
	if cfg.Auth.ModeratorPassword != "modpass123" {
		t.Fatalf("expected default moderator password, got %q", cfg.Auth.ModeratorPassword)
	}
	if cfg.Auth.PasswordHasher != "argon2id" {
		t.Fatalf("expected default hasher argon2id, got %q", cfg.Auth.PasswordHasher)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default session ttl 24h, got %v", cfg.Auth.SessionTTL)
	}
	if cfg.Companion.APIKey != "" || cfg.Companion.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected companion defaults: %+v", cfg.Companion)
	}
	if cfg.AuditLogFile != "./data/audit.log" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected audit/log defaults: %q %q", cfg.AuditLogFile, cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db?sslmode=disable")
	t.Setenv("DATABASE_DRIVER", "pgx")
	t.Setenv("AUTH_PASSWORD_HASHER", "sha256")
	t.Setenv("AUTH_SESSION_TTL_SEC", "60")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Store.Backend != "postgres" || cfg.Store.Driver != "pgx" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Auth.SessionTTL != time.Minute || cfg.Auth.PasswordHasher != "sha256" {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_READ_TIMEOUT_SEC", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected fallback read timeout 10s, got %v", cfg.HTTP.ReadTimeout)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"STORE_BACKEND": "postgres"},
		"unknown driver":       {"STORE_BACKEND": "postgres", "DATABASE_URL": "postgres://x", "DATABASE_DRIVER": "mysql"},
		"unknown backend":      {"STORE_BACKEND": "mongo"},
		"unknown hasher":       {"AUTH_PASSWORD_HASHER": "md5"},
		"zero ttl":             {"AUTH_SESSION_TTL_SEC": "0"},
		"negative timeout":     {"COMPANION_TIMEOUT_SEC": "-1"},
		"bad log level":        {"LOG_LEVEL": "trace"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HTTP_ADDR=:7070\nMOD_PASSWORD=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("MOD_PASSWORD", "from-env")
	// godotenv only fills variables that are absent.
	if err := os.Unsetenv("HTTP_ADDR"); err != nil {
		t.Fatalf("unset HTTP_ADDR: %v", err)
	}

	loaded, err := LoadDotenv(filepath.Join(t.TempDir(), "missing.env"), path)
	if err != nil {
		t.Fatalf("LoadDotenv() error: %v", err)
	}
	if loaded != path {
		t.Fatalf("expected %q loaded, got %q", path, loaded)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("expected addr from .env, got %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.ModeratorPassword != "from-env" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.Auth.ModeratorPassword)
	}
}

func TestLoadDotenvMissing(t *testing.T) {
	loaded, err := LoadDotenv(filepath.Join(t.TempDir(), "nope.env"))
	if err != nil || loaded != "" {
		t.Fatalf("expected no file loaded, got %q err=%v", loaded, err)
	}
}
