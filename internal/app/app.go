package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"mindwell/wellbeing-platform/internal/assessment"
	"mindwell/wellbeing-platform/internal/audit"
	"mindwell/wellbeing-platform/internal/auth"
	"mindwell/wellbeing-platform/internal/companion"
	"mindwell/wellbeing-platform/internal/config"
	"mindwell/wellbeing-platform/internal/httpserver"
	"mindwell/wellbeing-platform/internal/journal"
	"mindwell/wellbeing-platform/internal/migrations"
	"mindwell/wellbeing-platform/internal/mood"
	"mindwell/wellbeing-platform/internal/observability"
	"mindwell/wellbeing-platform/internal/session"
	"mindwell/wellbeing-platform/internal/storage"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	server *httpserver.Server
}

// stores groups the persistence backends for one configured backend.
type stores struct {
	users    auth.CredentialStore
	sessions session.Store
	results  assessment.ResultStore
	journal  journal.Store
	mood     mood.Store
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.LogLevel)

	var db *sql.DB
	var migrationService httpserver.MigrationService
	st := memoryStores()
	if cfg.Store.Backend != "memory" {
		var dialect storage.Dialect
		var err error
		db, dialect, err = storage.Open(ctx, storage.Options{
			Backend:     cfg.Store.Backend,
			DatabaseURL: cfg.Store.DatabaseURL,
			Driver:      cfg.Store.Driver,
			SQLitePath:  cfg.Store.SQLitePath,
		})
		if err != nil {
			return nil, err
		}

		migrator, err := migrations.NewService(db, dialect)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create migration service: %w", err)
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "backend", cfg.Store.Backend, "migrations", applied)
		}
		migrationService = migrator

		if st, err = sqlStores(db, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		logger.Warn("memory store backend selected; data is lost on restart")
	}

	closeDB := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	registry, err := session.NewRegistry(cfg.Auth.SessionTTL, st.sessions)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("create session registry: %w", err)
	}
	if err := registry.Load(ctx); err != nil {
		closeDB()
		return nil, fmt.Errorf("load session state: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.Auth.PasswordHasher, cfg.Auth.PasswordPepper)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("create password hasher: %w", err)
	}
	authService, err := auth.NewService(st.users, registry, auth.ServiceConfig{
		ModeratorPassword: cfg.Auth.ModeratorPassword,
		Hasher:            hasher,
	})
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	screening, err := assessment.NewService(st.results)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("create screening service: %w", err)
	}
	journalService, err := journal.NewService(st.journal)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("create journal service: %w", err)
	}
	moodService, err := mood.NewService(st.mood)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("create mood service: %w", err)
	}

	var llm companion.Streamer
	if cfg.Companion.APIKey != "" {
		llm = companion.NewOpenAIClient(cfg.Companion.APIKey, cfg.Companion.Model, cfg.Companion.BaseURL, cfg.Companion.Timeout)
	} else {
		logger.Warn("OPENAI_API_KEY not set; AI companion disabled")
	}

	deps := httpserver.Deps{
		Auth:       authService,
		Sessions:   registry,
		Screening:  screening,
		Journal:    journalService,
		Mood:       moodService,
		Companion:  companion.NewService(llm),
		Migrations: migrationService,
		Audit:      audit.NewLogger(cfg.AuditLogFile),
		Logger:     logger,
		Backend:    cfg.Store.Backend,
	}
	if db != nil {
		deps.DB = db
	}

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     db,
		server: httpserver.New(cfg.HTTP, deps),
	}, nil
}

func memoryStores() stores {
	return stores{
		users:   auth.NewInMemoryUserStore(),
		results: assessment.NewInMemoryResultStore(),
		journal: journal.NewInMemoryStore(),
		mood:    mood.NewInMemoryStore(),
	}
}

func sqlStores(db *sql.DB, dialect storage.Dialect) (stores, error) {
	users, err := auth.NewSQLUserStore(db, dialect)
	if err != nil {
		return stores{}, fmt.Errorf("create user store: %w", err)
	}
	sessions, err := session.NewSQLStore(db, dialect)
	if err != nil {
		return stores{}, fmt.Errorf("create session store: %w", err)
	}
	results, err := assessment.NewSQLResultStore(db, dialect)
	if err != nil {
		return stores{}, fmt.Errorf("create result store: %w", err)
	}
	journalStore, err := journal.NewSQLStore(db, dialect)
	if err != nil {
		return stores{}, fmt.Errorf("create journal store: %w", err)
	}
	moodStore, err := mood.NewSQLStore(db, dialect)
	if err != nil {
		return stores{}, fmt.Errorf("create mood store: %w", err)
	}
	return stores{
		users:    users,
		sessions: sessions,
		results:  results,
		journal:  journalStore,
		mood:     moodStore,
	}, nil
}

// Close releases the database handle. Run calls it on exit.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		_ = a.Close()
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "backend", a.cfg.Store.Backend)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
