package assessment

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"mindwell/wellbeing-platform/internal/storage"
)

type InMemoryResultStore struct {
	mu      sync.RWMutex
	results []Result
}

func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{}
}

func (s *InMemoryResultStore) Append(_ context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *InMemoryResultStore) List(_ context.Context, userID string, instrument Instrument) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Result, 0)
	for _, r := range s.results {
		if r.UserID != userID {
			continue
		}
		if instrument != "" && r.Instrument != instrument {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SQLResultStore appends to screening_results.
type SQLResultStore struct {
	db      *sql.DB
	dialect storage.Dialect
}

func NewSQLResultStore(db *sql.DB, dialect storage.Dialect) (*SQLResultStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &SQLResultStore{db: db, dialect: dialect}, nil
}

func (s *SQLResultStore) Append(ctx context.Context, r Result) error {
	q := s.dialect.Rebind(`INSERT INTO screening_results (id, user_id, test_type, score, category, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, r.ID, r.UserID, string(r.Instrument), r.TotalScore, r.Category, r.Timestamp.UTC()); err != nil {
		return storage.Wrap("append screening result", err)
	}
	return nil
}

func (s *SQLResultStore) List(ctx context.Context, userID string, instrument Instrument) ([]Result, error) {
	query := `SELECT id, user_id, test_type, score, category, created_at FROM screening_results WHERE user_id = ?`
	args := []any{userID}
	if instrument != "" {
		query += ` AND test_type = ?`
		args = append(args, string(instrument))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, storage.Wrap("query screening results", err)
	}
	defer rows.Close()

	out := make([]Result, 0)
	for rows.Next() {
		var (
			r        Result
			testType string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &testType, &r.TotalScore, &r.Category, &r.Timestamp); err != nil {
			return nil, storage.Wrap("scan screening result", err)
		}
		r.Instrument = Instrument(testType)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("iterate screening results", err)
	}
	return out, nil
}
