package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP         HTTPConfig
	Store        StoreConfig
	Auth         AuthConfig
	Companion    CompanionConfig
	AuditLogFile string
	LogLevel     string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type StoreConfig struct {
	Backend     string
	DatabaseURL string
	Driver      string
	SQLitePath  string
}

type AuthConfig struct {
	ModeratorPassword string
	PasswordHasher    string
	PasswordPepper    string
	SessionTTL        time.Duration
}

type CompanionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// LoadDotenv loads the first .env file found among paths (default ".env")
// without overriding variables already set in the environment. It returns the
// path it loaded, or "" when none exists.
func LoadDotenv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join("..", ".env")}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 60)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
			CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			Driver:      strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
			SQLitePath:  getEnv("SQLITE_PATH", "./data/mental_platform.db"),
		},
		Auth: AuthConfig{
			ModeratorPassword: getEnv("MOD_PASSWORD", "modpass123"),
			PasswordHasher:    strings.ToLower(getEnv("AUTH_PASSWORD_HASHER", "argon2id")),
			PasswordPepper:    getEnv("AUTH_PASSWORD_PEPPER", ""),
			SessionTTL:        time.Duration(getEnvInt("AUTH_SESSION_TTL_SEC", 86400)) * time.Second,
		},
		Companion: CompanionConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Timeout: time.Duration(getEnvInt("COMPANION_TIMEOUT_SEC", 120)) * time.Second,
		},
		AuditLogFile: getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.HTTP.ReadTimeout <= 0 || cfg.HTTP.WriteTimeout <= 0 || cfg.HTTP.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP timeouts must be > 0")
	}
	switch cfg.Store.Backend {
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH must not be empty")
		}
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
		if cfg.Store.Driver != "postgres" && cfg.Store.Driver != "pgx" {
			return Config{}, fmt.Errorf("DATABASE_DRIVER must be postgres or pgx, got %q", cfg.Store.Driver)
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be sqlite, postgres, or memory, got %q", cfg.Store.Backend)
	}
	if cfg.Auth.ModeratorPassword == "" {
		return Config{}, fmt.Errorf("MOD_PASSWORD must not be empty")
	}
	if cfg.Auth.PasswordHasher != "argon2id" && cfg.Auth.PasswordHasher != "sha256" {
		return Config{}, fmt.Errorf("AUTH_PASSWORD_HASHER must be argon2id or sha256, got %q", cfg.Auth.PasswordHasher)
	}
	if cfg.Auth.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_SESSION_TTL_SEC must be > 0")
	}
	if cfg.Companion.Timeout <= 0 {
		return Config{}, fmt.Errorf("COMPANION_TIMEOUT_SEC must be > 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("LOG_LEVEL must be debug, info, warn, or error, got %q", cfg.LogLevel)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
