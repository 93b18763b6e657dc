package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"mindwell/wellbeing-platform/internal/assessment"
	"mindwell/wellbeing-platform/internal/auth"
	"mindwell/wellbeing-platform/internal/companion"
	"mindwell/wellbeing-platform/internal/config"
	"mindwell/wellbeing-platform/internal/journal"
	"mindwell/wellbeing-platform/internal/migrations"
	"mindwell/wellbeing-platform/internal/mood"
	"mindwell/wellbeing-platform/internal/session"
	"mindwell/wellbeing-platform/internal/storage"
)

type AuthService interface {
	Signup(ctx context.Context, username, password string) (auth.User, error)
	Login(ctx context.Context, username, password string) (session.Session, error)
	Logout(ctx context.Context, token string) (session.Session, error)
	Session(ctx context.Context, token string) (session.Session, error)
	ListSessions(ctx context.Context) []session.Session
	RevokeSession(ctx context.Context, id string) error
}

type Navigator interface {
	Navigate(ctx context.Context, token string, page session.Page) (session.Session, error)
	BackToHome(ctx context.Context, token string) (session.Session, error)
}

type ScreeningService interface {
	Submit(ctx context.Context, userID string, instrument assessment.Instrument, responses assessment.Responses) (assessment.Outcome, error)
	History(ctx context.Context, userID string, instrument assessment.Instrument) ([]assessment.Result, error)
}

type JournalService interface {
	Add(ctx context.Context, userID, text string) (journal.Entry, error)
	List(ctx context.Context, userID string) ([]journal.Entry, error)
}

type MoodService interface {
	Log(ctx context.Context, userID string, score int, notes string) (mood.Entry, error)
	History(ctx context.Context, userID string) ([]mood.Entry, error)
}

type CompanionService interface {
	Available() bool
	Reply(ctx context.Context, sessionID, prompt string, onChunk func(string) error) (string, error)
	History(sessionID string) []companion.Message
	Forget(sessionID string)
}

type MigrationService interface {
	Status(ctx context.Context) ([]migrations.Status, error)
}

// Pinger reports whether the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

type Deps struct {
	Auth       AuthService
	Sessions   Navigator
	Screening  ScreeningService
	Journal    JournalService
	Mood       MoodService
	Companion  CompanionService
	Migrations MigrationService
	DB         Pinger
	Audit      AuditLogger
	Logger     *slog.Logger
	Backend    string
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(deps, cfg.CORSOrigins...),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps, corsOrigins ...string) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	h := &handler{deps: deps}
	h.pages = h.newPageRouter()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(deps.Logger))
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", h.readyz)
	r.Get("/v1/info", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "wellbeing-platform-api",
			"version": "0.1.0",
			"backend": deps.Backend,
		})
	})
	r.Get("/v1/resources", h.resources)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.With(h.requireSession).Post("/logout", h.logout)
		r.With(h.requireSession).Get("/me", h.me)
	})

	r.Get("/v1/session", h.currentSession)
	r.With(h.requireSession).Put("/v1/session/page", h.navigate)
	r.With(h.requireSession).Post("/v1/session/home", h.backToHome)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Get("/v1/screening/instruments", h.listInstruments)
		r.Get("/v1/screening/instruments/{instrument}", h.getInstrument)
		r.Post("/v1/screening/instruments/{instrument}/responses", h.submitScreening)
		r.Get("/v1/screening/results", h.screeningResults)

		r.Get("/v1/journal", h.listJournal)
		r.Post("/v1/journal", h.addJournal)
		r.Get("/v1/mood", h.moodHistory)
		r.Post("/v1/mood", h.logMood)

		r.Post("/v1/companion/messages", h.companionMessage)
	})

	r.Route("/v1/system", func(r chi.Router) {
		r.Use(h.requireSession, requireModerator)
		r.Get("/sessions", h.listSessions)
		r.Delete("/sessions/{id}", h.revokeSession)
		r.Get("/migrations", h.migrationStatus)
	})

	return r
}

type handler struct {
	deps  Deps
	pages *session.Router
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.DB.PingContext(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type sessionKey struct{}

// requireSession resolves the bearer token to a live Session and stores it in
// the request context.
func (h *handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		s, err := h.deps.Auth.Session(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func requireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := sessionFrom(r); !s.Privileged {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionFrom(r *http.Request) session.Session {
	s, _ := r.Context().Value(sessionKey{}).(session.Session)
	return s
}

func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

// writeStoreError maps storage failures to 503 and anything else to 500.
func writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, storage.ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, message)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			w.Header().Set("X-Request-Id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func auditReq(a AuditLogger, r *http.Request, actor, action, target, outcome, sessionID, detail string) {
	parts := []string{
		"rid=" + middleware.GetReqID(r.Context()),
		"ip=" + clientIP(r),
		"ua=" + strings.TrimSpace(r.UserAgent()),
	}
	if sessionID != "" {
		parts = append(parts, "sid="+sessionID)
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	if a == nil {
		return
	}
	_ = a.Log(actor, action, target, outcome, strings.Join(parts, " | "))
}
