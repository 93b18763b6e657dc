package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mindwell/wellbeing-platform/internal/config"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		HTTP: config.HTTPConfig{
			Addr:            "127.0.0.1:0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Store: config.StoreConfig{
			Backend:    backend,
			SQLitePath: filepath.Join(dir, "db", "platform.db"),
		},
		Auth: config.AuthConfig{
			ModeratorPassword: "modpass123",
			PasswordHasher:    "sha256",
			SessionTTL:        time.Hour,
		},
		Companion:    config.CompanionConfig{Timeout: time.Second},
		AuditLogFile: filepath.Join(dir, "audit.log"),
		LogLevel:     "error",
	}
}

func TestNewMemoryBackend(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "memory"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.db != nil {
		t.Fatalf("memory backend must not open a database")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestNewSQLiteBackendAppliesMigrations(t *testing.T) {
	cfg := testConfig(t, "sqlite")
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(cfg.Store.SQLitePath); err != nil {
		t.Fatalf("expected sqlite file to exist: %v", err)
	}
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("users table missing after migrations: %v", err)
	}
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM screening_results`).Scan(&n); err != nil {
		t.Fatalf("screening_results table missing after migrations: %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, "memory"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run() did not return after cancel")
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), testConfig(t, "mongo")); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
