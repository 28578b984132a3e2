package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"knowledge-tool/internal/handlers"
	"knowledge-tool/internal/metrics"
	"knowledge-tool/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	NoteService service.NoteService
	// DB is pinged by the health check.
	DB handlers.Pinger
	// Metrics is optional; when set, requests are measured and /metrics is served.
	Metrics *metrics.Collector
	// SummarizerState is optional and reports the LLM circuit breaker state.
	SummarizerState func() string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// Add CORS middleware
	r.Use(CORS)

	notes := handlers.NewNotesHandler(deps.NoteService)
	searchHandler := handlers.NewSearchHandler(deps.NoteService)
	sessions := handlers.NewSessionsHandler(deps.NoteService)
	journal := handlers.NewJournalHandler(deps.NoteService)
	selection := handlers.NewSelectionHandler(deps.NoteService)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", notes.List)
			r.Post("/", notes.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", notes.Get)
				r.Put("/", notes.Update)
				r.Delete("/", notes.Delete)
				r.Post("/trash", notes.Trash)
				r.Post("/restore", notes.Restore)
				r.Post("/read", notes.MarkRead)
			})
		})

		r.Get("/paths", notes.ListByPath)
		r.Get("/trash", notes.ListTrash)
		r.Delete("/trash", notes.EmptyTrash)
		r.Get("/tags", notes.Tags)

		r.Get("/search", searchHandler.Search)
		r.Get("/search/status", searchHandler.Status)
		r.Get("/search/status/events", searchHandler.StatusEvents)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessions.Create)
			r.Post("/{id}/input", sessions.Input)
			r.Get("/{id}/events", sessions.Events)
			r.Delete("/{id}", sessions.Delete)
		})

		r.Get("/journal/today", journal.Today)
		r.Get("/journal/review", journal.Review)

		r.Get("/selection", selection.Get)
		r.Put("/selection", selection.Select)
		r.Post("/selection/draft", selection.Draft)
		r.Delete("/selection", selection.Clear)

		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.DB, deps.NoteService, deps.SummarizerState))
	})

	r.Method(http.MethodGet, "/notes/{id}", handlers.NewNoteHandler(deps.NoteService))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
