package assessment

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindwell/wellbeing-platform/internal/migrations"
	"mindwell/wellbeing-platform/internal/storage"
)

func TestSQLResultStorePostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLResultStore(db, storage.DialectPostgres)
	require.NoError(t, err)

	ts := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	r := Result{ID: "r1", UserID: "u1", Instrument: GAD7, TotalScore: 12, Category: "Moderate Anxiety", Timestamp: ts}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO screening_results (id, user_id, test_type, score, category, created_at) VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs("r1", "u1", "GAD-7", 12, "Moderate Anxiety", ts).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Append(context.Background(), r))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM screening_results WHERE user_id = $1 AND test_type = $2 ORDER BY created_at ASC, id ASC`)).
		WithArgs("u1", "GAD-7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "test_type", "score", "category", "created_at"}).
			AddRow("r1", "u1", "GAD-7", 12, "Moderate Anxiety", ts))
	got, err := store.List(context.Background(), "u1", GAD7)
	require.NoError(t, err)
	assert.Equal(t, []Result{r}, got)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM screening_results WHERE user_id = $1 ORDER BY`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "test_type", "score", "category", "created_at"}))
	got, err = store.List(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLResultStoreWrapsFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store, _ := NewSQLResultStore(db, storage.DialectPostgres)

	mock.ExpectExec("INSERT INTO screening_results").WillReturnError(errors.New("connection refused"))
	err = store.Append(context.Background(), Result{ID: "r1", UserID: "u1", Instrument: PHQ9})
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	mock.ExpectQuery("SELECT id, user_id").WillReturnError(errors.New("connection refused"))
	_, err = store.List(context.Background(), "u1", "")
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLResultStoreSQLite(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := storage.Open(ctx, storage.Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "results.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mig, err := migrations.NewService(db, dialect)
	require.NoError(t, err)
	_, err = mig.Up(ctx)
	require.NoError(t, err)

	store, err := NewSQLResultStore(db, dialect)
	require.NoError(t, err)
	svc, err := NewService(store)
	require.NoError(t, err)
	now := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	_, err = svc.Submit(ctx, "u1", PHQ9, Responses{3, 3, 3, 3, 3, 3, 2, 1, 1})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "u1", GAD7, make(Responses, 7))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "u1", PHQ9, make(Responses, 9))
	require.NoError(t, err)

	phq, err := svc.History(ctx, "u1", PHQ9)
	require.NoError(t, err)
	require.Len(t, phq, 2)
	assert.Equal(t, 22, phq[0].TotalScore)
	assert.Equal(t, "Severe Depression", phq[0].Category)
	assert.Equal(t, 0, phq[1].TotalScore)
	assert.True(t, phq[0].Timestamp.Before(phq[1].Timestamp))

	all, err := svc.History(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestResultStoresBreakTimestampTiesByID(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := storage.Open(ctx, storage.Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "ties.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mig, err := migrations.NewService(db, dialect)
	require.NoError(t, err)
	_, err = mig.Up(ctx)
	require.NoError(t, err)
	sqlStore, err := NewSQLResultStore(db, dialect)
	require.NoError(t, err)

	ts := time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC)
	stores := map[string]ResultStore{
		"memory": NewInMemoryResultStore(),
		"sqlite": sqlStore,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"b", "c", "a"} {
				require.NoError(t, store.Append(ctx, Result{ID: id, UserID: "u1", Instrument: PHQ9, Category: "Minimal Depression", Timestamp: ts}))
			}
			got, err := store.List(ctx, "u1", PHQ9)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, []string{"a", "b", "c"}, ids)
		})
	}
}
