package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Store persists the registry so sessions survive a restart.
type Store interface {
	Load(ctx context.Context) (map[string]Session, error)
	Save(ctx context.Context, sessions map[string]Session) error
}

// Registry maps client tokens to their current Session.
type Registry struct {
	ttl     time.Duration
	store   Store
	nowFunc func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

func NewRegistry(ttl time.Duration, store Store) (*Registry, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be > 0")
	}
	return &Registry{
		ttl:      ttl,
		store:    store,
		nowFunc:  time.Now,
		sessions: make(map[string]Session),
	}, nil
}

func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	state, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	if state == nil {
		state = make(map[string]Session)
	}
	r.mu.Lock()
	r.sessions = state
	r.mu.Unlock()
	return nil
}

// Open logs identity in and returns the new Session with its token.
func (r *Registry) Open(ctx context.Context, id Identity) (Session, error) {
	token, err := generateToken(32)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}

	s := LoggedIn(id, r.nowFunc(), r.ttl)
	s.ID = uuid.NewString()
	s.Token = token

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = s
	if err := r.persistLocked(ctx); err != nil {
		delete(r.sessions, token)
		return Session{}, err
	}
	return s, nil
}

func (r *Registry) Get(ctx context.Context, token string) (Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidToken
	}

	if s.Expired(r.nowFunc()) {
		r.mu.Lock()
		delete(r.sessions, token)
		_ = r.persistLocked(ctx)
		r.mu.Unlock()
		return Session{}, ErrInvalidToken
	}
	return s, nil
}

func (r *Registry) Navigate(ctx context.Context, token string, page Page) (Session, error) {
	return r.transition(ctx, token, func(s Session) (Session, error) {
		return s.Navigate(page)
	})
}

func (r *Registry) BackToHome(ctx context.Context, token string) (Session, error) {
	return r.transition(ctx, token, Session.BackToHome)
}

// transition applies fn to the Session under token while holding the write
// lock, so concurrent transitions on one token are serialized. On any failure
// the stored Session is left as it was.
func (r *Registry) transition(ctx context.Context, token string, fn func(Session) (Session, error)) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[token]
	if !ok {
		return Session{}, ErrInvalidToken
	}
	if current.Expired(r.nowFunc()) {
		delete(r.sessions, token)
		_ = r.persistLocked(ctx)
		return Session{}, ErrInvalidToken
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if next == current {
		return current, nil
	}
	r.sessions[token] = next
	if err := r.persistLocked(ctx); err != nil {
		r.sessions[token] = current
		return current, err
	}
	return next, nil
}

// Close ends the Session under token and returns the Anonymous state.
func (r *Registry) Close(ctx context.Context, token string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.sessions[token]
	if !ok {
		return Session{}, ErrInvalidToken
	}
	delete(r.sessions, token)
	if err := r.persistLocked(ctx); err != nil {
		r.sessions[token] = prev
		return Session{}, err
	}
	return prev.Logout(), nil
}

func (r *Registry) List(ctx context.Context) []Session {
	now := r.nowFunc()

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.sessions))
	dirty := false
	for token, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, token)
			dirty = true
			continue
		}
		out = append(out, s)
	}
	if dirty {
		_ = r.persistLocked(ctx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *Registry) RevokeByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, s := range r.sessions {
		if s.ID != id {
			continue
		}
		delete(r.sessions, token)
		if err := r.persistLocked(ctx); err != nil {
			r.sessions[token] = s
			return err
		}
		return nil
	}
	return ErrInvalidToken
}

func (r *Registry) persistLocked(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(ctx, r.sessions); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func generateToken(n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("token length too short")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
