// Package storage holds the database plumbing shared by the SQL-backed stores:
// opening a connection for the configured backend, dialect-aware placeholder
// rebinding, and classification of driver errors.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrUnavailable marks any failure of the underlying store. Callers match it
// with errors.Is; the concrete driver error stays reachable through *Error.
var ErrUnavailable = errors.New("storage unavailable")

// Error wraps a failed storage operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Wrap returns nil for a nil err, otherwise an *Error for op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Rebind rewrites '?' placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

type Options struct {
	Backend     string
	DatabaseURL string
	Driver      string
	SQLitePath  string
}

// Open connects to the configured backend and verifies the connection.
func Open(ctx context.Context, opts Options) (*sql.DB, Dialect, error) {
	switch opts.Backend {
	case "postgres":
		driver := opts.Driver
		if driver == "" {
			driver = "postgres"
		}
		if driver != "postgres" && driver != "pgx" {
			return nil, "", fmt.Errorf("unsupported postgres driver %q", driver)
		}
		db, err := sql.Open(driver, opts.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := ping(ctx, db); err != nil {
			_ = db.Close()
			return nil, "", err
		}
		return db, DialectPostgres, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o755); err != nil {
			return nil, "", fmt.Errorf("mkdir sqlite dir: %w", err)
		}
		dsn := "file:" + opts.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		// A single writer keeps SQLITE_BUSY out of concurrent signups.
		db.SetMaxOpenConns(1)
		if err := ping(ctx, db); err != nil {
			_ = db.Close()
			return nil, "", err
		}
		return db, DialectSQLite, nil
	default:
		return nil, "", fmt.Errorf("unsupported store backend %q", opts.Backend)
	}
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
