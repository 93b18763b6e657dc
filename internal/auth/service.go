package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindwell/wellbeing-platform/internal/session"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("username and password are required")
)

type Service struct {
	users             CredentialStore
	sessions          *session.Registry
	hasher            PasswordHasher
	moderatorPassword string
	nowFunc           func() time.Time
}

type ServiceConfig struct {
	// ModeratorPassword is compared in plaintext against the moderator login.
	ModeratorPassword string
	Hasher            PasswordHasher
}

func NewService(users CredentialStore, sessions *session.Registry, cfg ServiceConfig) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if cfg.ModeratorPassword == "" {
		return nil, fmt.Errorf("moderator password is required")
	}
	hasher := cfg.Hasher
	if hasher == nil {
		var err error
		if hasher, err = NewHasher("argon2id", ""); err != nil {
			return nil, err
		}
	}

	return &Service{
		users:             users,
		sessions:          sessions,
		hasher:            hasher,
		moderatorPassword: cfg.ModeratorPassword,
		nowFunc:           time.Now,
	}, nil
}

// Signup creates a credential row. It does not log the user in.
func (s *Service) Signup(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidInput
	}
	if username == ModeratorUsername {
		return User{}, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.nowFunc().UTC(),
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

// Login authenticates username and opens a Session on the Home page.
func (s *Service) Login(ctx context.Context, username, password string) (session.Session, error) {
	username = strings.TrimSpace(username)
	if username == ModeratorUsername &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.moderatorPassword)) == 1 {
		return s.sessions.Open(ctx, session.Identity{
			UserID:     ModeratorUserID,
			Username:   ModeratorUsername,
			Privileged: true,
		})
	}

	u, err := s.users.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return session.Session{}, ErrInvalidCredentials
		}
		return session.Session{}, err
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil || !ok {
		return session.Session{}, ErrInvalidCredentials
	}

	return s.sessions.Open(ctx, session.Identity{UserID: u.ID, Username: u.Username})
}

// Logout closes the Session under token and returns the Anonymous state.
func (s *Service) Logout(ctx context.Context, token string) (session.Session, error) {
	return s.sessions.Close(ctx, token)
}

func (s *Service) Session(ctx context.Context, token string) (session.Session, error) {
	return s.sessions.Get(ctx, token)
}

func (s *Service) ListSessions(ctx context.Context) []session.Session {
	return s.sessions.List(ctx)
}

func (s *Service) RevokeSession(ctx context.Context, id string) error {
	return s.sessions.RevokeByID(ctx, id)
}
