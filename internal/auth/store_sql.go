package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mindwell/wellbeing-platform/internal/storage"
)

// SQLUserStore keeps credentials in the users table. The unique index on
// username makes InsertUser atomic.
type SQLUserStore struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewSQLUserStore(db *sql.DB, dialect storage.Dialect) (*SQLUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &SQLUserStore{db: db, dialect: dialect}, nil
}

func (s *SQLUserStore) FindUser(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, ErrUserNotFound
	}

	var u User
	q := s.dialect.Rebind(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`)
	if err := s.db.QueryRowContext(ctx, q, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, storage.Wrap("query user", err)
	}
	return u, nil
}

func (s *SQLUserStore) InsertUser(ctx context.Context, user User) error {
	if user.ID == "" || user.Username == "" || user.PasswordHash == "" {
		return fmt.Errorf("id, username, and password hash are required")
	}

	q := s.dialect.Rebind(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, user.ID, user.Username, user.PasswordHash, user.CreatedAt.UTC()); err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return storage.Wrap("insert user", err)
	}
	return nil
}
