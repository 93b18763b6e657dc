package session

import (
	"context"
	"database/sql"
	"fmt"

	"mindwell/wellbeing-platform/internal/storage"
)

// SQLStore snapshots the registry into the auth_sessions table.
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

func (s *SQLStore) Load(ctx context.Context) (map[string]Session, error) {
	const q = `
SELECT token, session_id, user_id, username, privileged, current_page, created_at, expires_at
FROM auth_sessions`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storage.Wrap("query sessions", err)
	}
	defer rows.Close()

	out := make(map[string]Session)
	for rows.Next() {
		sess := Session{Authenticated: true}
		var page string
		if err := rows.Scan(&sess.Token, &sess.ID, &sess.UserID, &sess.Username, &sess.Privileged, &page, &sess.CreatedAt, &sess.ExpiresAt); err != nil {
			return nil, storage.Wrap("scan session", err)
		}
		sess.CurrentPage = Page(page)
		if !sess.CurrentPage.Valid() {
			sess.CurrentPage = Home
		}
		out[sess.Token] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("iterate sessions", err)
	}
	return out, nil
}

func (s *SQLStore) Save(ctx context.Context, sessions map[string]Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap("begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM auth_sessions`); err != nil {
		return storage.Wrap("clear sessions", err)
	}

	q := s.dialect.Rebind(`
INSERT INTO auth_sessions (token, session_id, user_id, username, privileged, current_page, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for token, sess := range sessions {
		if _, err := tx.ExecContext(ctx, q, token, sess.ID, sess.UserID, sess.Username, sess.Privileged, string(sess.CurrentPage), sess.CreatedAt.UTC(), sess.ExpiresAt.UTC()); err != nil {
			return storage.Wrap("insert session", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Wrap("commit session tx", err)
	}
	return nil
}
