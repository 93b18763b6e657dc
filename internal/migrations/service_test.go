package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"mindwell/wellbeing-platform/internal/storage"
)

func openSQLite(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestUpCreatesSchema(t *testing.T) {
	db := openSQLite(t, "migrations_up")
	svc, err := NewService(db, storage.DialectSQLite)
	require.NoError(t, err)

	applied, err := svc.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_init.sql", "00002_journal_mood.sql"}, applied)

	for _, table := range []string{"users", "screening_results", "auth_sessions", "journal_entries", "mood_entries", "goose_db_version"} {
		assert.Truef(t, tableExists(t, db, table), "expected table %s", table)
	}

	again, err := svc.Up(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestStatusReportsPendingThenApplied(t *testing.T) {
	db := openSQLite(t, "migrations_status")
	svc, err := NewService(db, storage.DialectSQLite)
	require.NoError(t, err)

	before, err := svc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, before, 2)
	for _, st := range before {
		assert.False(t, st.Applied)
		assert.Empty(t, st.AppliedAt)
	}

	_, err = svc.Up(context.Background())
	require.NoError(t, err)

	after, err := svc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, int64(1), after[0].Version)
	assert.Equal(t, "00001_init.sql", after[0].Name)
	for _, st := range after {
		assert.True(t, st.Applied)
	}
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, storage.DialectSQLite)
	require.Error(t, err)

	db := openSQLite(t, "migrations_bad_dialect")
	_, err = NewService(db, storage.Dialect("oracle"))
	require.Error(t, err)
}
