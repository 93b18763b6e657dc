// Package session models the per-client navigation state: who is signed in and
// which page they are on. Transitions are pure functions returning the next
// Session; the Registry keeps the current Session for each client token.
package session

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotAuthenticated  = errors.New("session is not authenticated")
	ErrInvalidTransition = errors.New("invalid page transition")
	ErrUnknownPage       = errors.New("unknown page")
)

type Page string

const (
	Home      Page = "home"
	Journal   Page = "journal"
	Mood      Page = "mood"
	Screening Page = "screening"
	Connect   Page = "connect"
	Companion Page = "companion"
	Resources Page = "resources"
)

// Features lists the pages reachable from Home, in menu order.
var Features = []Page{Journal, Mood, Screening, Connect, Companion, Resources}

var pageTitles = map[Page]string{
	Home:      "Home",
	Journal:   "My Journal",
	Mood:      "Mood Tracker",
	Screening: "Self-Screening",
	Connect:   "Connect",
	Companion: "AI Companion",
	Resources: "Resources",
}

func (p Page) Title() string {
	if t, ok := pageTitles[p]; ok {
		return t
	}
	return pageTitles[Home]
}

func (p Page) Valid() bool {
	_, ok := pageTitles[p]
	return ok
}

func ParsePage(s string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrUnknownPage
	}
	return p, nil
}

// Identity is the authenticated principal a Session is opened for.
type Identity struct {
	UserID     string
	Username   string
	Privileged bool
}

type Session struct {
	ID            string
	Token         string
	Authenticated bool
	Privileged    bool
	Username      string
	UserID        string
	CurrentPage   Page
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// View is the client-facing shape of a Session; it never carries the token.
type View struct {
	ID            string     `json:"id,omitempty"`
	Authenticated bool       `json:"authenticated"`
	Privileged    bool       `json:"privileged"`
	Username      string     `json:"username,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	CurrentPage   Page       `json:"current_page"`
	PageTitle     string     `json:"page_title"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (s Session) View() View {
	v := View{
		ID:            s.ID,
		Authenticated: s.Authenticated,
		Privileged:    s.Privileged,
		Username:      s.Username,
		UserID:        s.UserID,
		CurrentPage:   s.CurrentPage,
		PageTitle:     s.CurrentPage.Title(),
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt.UTC()
		v.CreatedAt = &created
	}
	if !s.ExpiresAt.IsZero() {
		expires := s.ExpiresAt.UTC()
		v.ExpiresAt = &expires
	}
	return v
}

// Anonymous is the initial state of every client.
func Anonymous() Session {
	return Session{CurrentPage: Home}
}

// LoggedIn is the state entered on a successful login.
func LoggedIn(id Identity, now time.Time, ttl time.Duration) Session {
	return Session{
		Authenticated: true,
		Privileged:    id.Privileged,
		Username:      id.Username,
		UserID:        id.UserID,
		CurrentPage:   Home,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

// Logout discards the identity and returns to Home.
func (s Session) Logout() Session {
	return Anonymous()
}

// Navigate selects page. Feature pages are only reachable from Home; Home is
// reachable from anywhere once authenticated.
func (s Session) Navigate(page Page) (Session, error) {
	if !page.Valid() {
		return s, ErrUnknownPage
	}
	if !s.Authenticated {
		return s, ErrNotAuthenticated
	}
	if page == Home {
		return s.BackToHome()
	}
	if s.CurrentPage != Home && s.CurrentPage != page {
		return s, ErrInvalidTransition
	}
	s.CurrentPage = page
	return s, nil
}

func (s Session) BackToHome() (Session, error) {
	if !s.Authenticated {
		return s, ErrNotAuthenticated
	}
	s.CurrentPage = Home
	return s, nil
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
