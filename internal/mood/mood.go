// Package mood records 1..5 mood scores over time. History is the time
// series a chart renders.
package mood

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidScore = errors.New("mood score must be between 1 and 5")

const (
	MinScore = 1
	MaxScore = 5
)

type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store returns history oldest first, breaking timestamp ties by ID.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
}

type Service struct {
	store   Store
	nowFunc func() time.Time
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("mood store is required")
	}
	return &Service{store: store, nowFunc: time.Now}, nil
}

func (s *Service) Log(ctx context.Context, userID string, score int, notes string) (Entry, error) {
	if score < MinScore || score > MaxScore {
		return Entry{}, ErrInvalidScore
	}
	e := Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: s.nowFunc().UTC(),
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]Entry, error) {
	return s.store.ListByUser(ctx, userID)
}

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Insert(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
