// Package migrations applies the embedded schema migrations with goose and
// reports their state.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/pressly/goose/v3"

	"mindwell/wellbeing-platform/internal/storage"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var embedded embed.FS

type Status struct {
	Version   int64  `json:"version"`
	Name      string `json:"name"`
	Applied   bool   `json:"applied"`
	AppliedAt string `json:"applied_at,omitempty"`
}

type Service struct {
	provider *goose.Provider
}

func NewService(db *sql.DB, dialect storage.Dialect) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	var gooseDialect goose.Dialect
	var dir string
	switch dialect {
	case storage.DialectPostgres:
		gooseDialect, dir = goose.DialectPostgres, "sql/postgres"
	case storage.DialectSQLite:
		gooseDialect, dir = goose.DialectSQLite3, "sql/sqlite"
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return &Service{provider: provider}, nil
}

// Up applies every pending migration and returns the names it applied.
func (s *Service) Up(ctx context.Context) ([]string, error) {
	results, err := s.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	applied := make([]string, 0, len(results))
	for _, r := range results {
		if r.Source != nil {
			applied = append(applied, path.Base(r.Source.Path))
		}
	}
	return applied, nil
}

func (s *Service) Status(ctx context.Context) ([]Status, error) {
	statuses, err := s.provider.Status(ctx)
	if err != nil {
		return nil, storage.Wrap("migration status", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, st := range statuses {
		if st.Source == nil {
			continue
		}
		item := Status{
			Version: st.Source.Version,
			Name:    path.Base(st.Source.Path),
			Applied: st.State == goose.StateApplied,
		}
		if item.Applied && !st.AppliedAt.IsZero() {
			item.AppliedAt = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return out, nil
}
