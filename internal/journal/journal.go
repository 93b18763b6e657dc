// Package journal stores free-text diary entries per user.
package journal

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

var ErrEmptyEntry = errors.New("journal entry is empty")

type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store lists entries newest first, breaking timestamp ties by descending ID.
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
		return nil, fmt.Errorf("journal store is required")
	}
	return &Service{store: store, nowFunc: time.Now}, nil
}

func (s *Service) Add(ctx context.Context, userID, text string) (Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, ErrEmptyEntry
	}
	e := Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		CreatedAt: s.nowFunc().UTC(),
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
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
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
