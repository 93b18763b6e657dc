package journal

import (
	"context"
	"database/sql"
	"fmt"

	"mindwell/wellbeing-platform/internal/storage"
)

type SQLStore struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewSQLStore(db *sql.DB, dialect storage.Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) Insert(ctx context.Context, e Entry) error {
	q := s.dialect.Rebind(`INSERT INTO journal_entries (id, user_id, entry_text, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, e.ID, e.UserID, e.Text, e.CreatedAt.UTC()); err != nil {
		return storage.Wrap("insert journal entry", err)
	}
	return nil
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	q := s.dialect.Rebind(`SELECT id, user_id, entry_text, created_at FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, storage.Wrap("query journal entries", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &e.CreatedAt); err != nil {
			return nil, storage.Wrap("scan journal entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("iterate journal entries", err)
	}
	return out, nil
}
