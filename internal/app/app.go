// Package app wires configuration, storage, search and the service layer into a runnable
// application shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"knowledge-tool/internal/config"
	"knowledge-tool/internal/http"
	"knowledge-tool/internal/llm"
	"knowledge-tool/internal/metrics"
	"knowledge-tool/internal/search"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
	"knowledge-tool/internal/summary"
)

// shutdownTimeout bounds how long in-flight requests get when the server stops.
const shutdownTimeout = 10 * time.Second

// App holds the long-lived components of a running instance.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Notes   *storage.NoteRepo
	Metrics *metrics.Collector
	Service service.NoteService

	summarizerState func() string
}

// New opens the database, runs migrations and builds the service layer.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Debug("Database initialized", "path", cfg.DBPath)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Notes:   storage.NewNoteRepo(db),
		Metrics: metrics.New(),
	}

	newCoordinator := func() (*search.Coordinator, error) {
		return search.NewCoordinator(
			search.WithTimeout(cfg.SearchTimeout),
			search.WithShardSize(cfg.SearchShardSize),
			search.WithMetrics(a.Metrics),
		)
	}

	coord, err := newCoordinator()
	if err != nil {
		// Notes stay usable without search
		logger.Warn("Search coordinator unavailable", "error", err)
		coord = nil
	}

	summarizer, state := a.newSummarizer()
	a.summarizerState = state

	a.Service = service.NewNoteService(a.Notes, service.Options{
		Coordinator:    coord,
		NewCoordinator: newCoordinator,
		Debounce:       cfg.SearchDebounce,
		Summarizer:     summarizer,
		Metrics:        a.Metrics,
	})

	if cfg.SeedDemoData {
		n, err := Seed(ctx, a.Notes, time.Now())
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if n > 0 {
			logger.Info("Seeded demo notes", "count", n)
		}
	}

	return a, nil
}

func (a *App) newSummarizer() (summary.Summarizer, func() string) {
	fallback := summary.TemplateSummarizer{}
	if a.Config.SummaryMode != config.SummaryModeLLM {
		return fallback, nil
	}

	client := llm.NewClient(a.Config.LLMBaseURL, a.Config.LLMModelName, llm.WithAPIKey(a.Config.LLMAPIKey))
	s := summary.NewLLMSummarizer(client, summary.DefaultBreakerConfig(), fallback)
	a.Logger.Debug("LLM summarizer configured", "base_url", a.Config.LLMBaseURL, "model", a.Config.LLMModelName)
	return s, func() string { return s.State().String() }
}

// Router builds the HTTP handler for this instance.
func (a *App) Router() nethttp.Handler {
	return http.NewRouter(&http.Deps{
		NoteService:     a.Service,
		DB:              a.DB,
		Metrics:         a.Metrics,
		SummarizerState: a.summarizerState,
	})
}

// Serve runs the API server until ctx is cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &nethttp.Server{
		Addr:              ":" + a.Config.APIPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the service and the database.
func (a *App) Close() error {
	return errors.Join(a.Service.Close(), a.DB.Close())
}
