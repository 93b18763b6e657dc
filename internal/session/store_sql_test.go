package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"mindwell/wellbeing-platform/internal/storage"
)

func TestSQLStoreSaveAndLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	store, err := NewSQLStore(db, storage.DialectPostgres)
	if err != nil {
		t.Fatalf("NewSQLStore() error: %v", err)
	}

	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	sessions := map[string]Session{
		"tok1": {
			ID:            "sid1",
			Token:         "tok1",
			Authenticated: true,
			UserID:        "u1",
			Username:      "alice",
			CurrentPage:   Screening,
			CreatedAt:     now,
			ExpiresAt:     now.Add(time.Hour),
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM auth_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO auth_sessions").
		WithArgs("tok1", "sid1", "u1", "alice", false, "screening", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.Save(context.Background(), sessions); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rows := sqlmock.NewRows([]string{"token", "session_id", "user_id", "username", "privileged", "current_page", "created_at", "expires_at"}).
		AddRow("tok1", "sid1", "u1", "alice", false, "screening", now, now.Add(time.Hour)).
		AddRow("tok2", "sid2", "00000000-0000-0000-0000-000000000000", "moderator", true, "retired-page", now, now.Add(time.Hour))
	mock.ExpectQuery("SELECT token, session_id, user_id, username, privileged, current_page, created_at, expires_at FROM auth_sessions").
		WillReturnRows(rows)

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 2 || loaded["tok1"].ID != "sid1" || loaded["tok1"].CurrentPage != Screening {
		t.Fatalf("unexpected loaded sessions: %+v", loaded)
	}
	if !loaded["tok2"].Privileged || loaded["tok2"].CurrentPage != Home {
		t.Fatalf("expected privileged session with unknown page reset to home, got %+v", loaded["tok2"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestSQLStoreSaveRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	store, _ := NewSQLStore(db, storage.DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM auth_sessions").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = store.Save(context.Background(), map[string]Session{})
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Fatalf("expected storage.ErrUnavailable, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
