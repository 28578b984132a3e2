package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/service"
)

const (
	healthy   = "healthy"
	degraded  = "degraded"
	unhealthy = "unhealthy"
)

// Pinger checks that a dependency is reachable. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	// Status is "healthy", "degraded" or "unhealthy".
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	// Issues is only set when Status is not "healthy".
	Issues []string `json:"issues,omitempty"`
}

// dependency is one component the health endpoint reports on. A failing critical
// dependency makes the instance unhealthy; any other failure only degrades it.
type dependency struct {
	name     string
	critical bool
	check    func(ctx context.Context) (string, error)
}

// HealthHandler reports whether the store, search and summarizer are usable.
type HealthHandler struct {
	deps    []dependency
	timeout time.Duration
}

// errBreakerOpen reports a summarizer whose circuit breaker is open.
var errBreakerOpen = errors.New("circuit breaker open")

// NewHealthHandler creates a new HealthHandler. summarizerState may be nil; when set it
// reports the LLM circuit breaker state.
func NewHealthHandler(db Pinger, noteService service.NoteService, summarizerState func() string) *HealthHandler {
	deps := []dependency{
		{
			name:     "database",
			critical: true,
			check: func(ctx context.Context) (string, error) {
				if err := db.PingContext(ctx); err != nil {
					return "error", err
				}
				return "ok", nil
			},
		},
		{
			name: "search",
			check: func(context.Context) (string, error) {
				if status := noteService.SearchStatus(); !status.Available {
					return "error", errors.New(status.Error)
				}
				return "ok", nil
			},
		},
	}
	if summarizerState != nil {
		deps = append(deps, dependency{
			name: "summarizer",
			check: func(context.Context) (string, error) {
				state := summarizerState()
				if state == "open" {
					return state, errBreakerOpen
				}
				return state, nil
			},
		})
	}
	return &HealthHandler{deps: deps, timeout: 5 * time.Second}
}

// ServeHTTP handles GET /api/health. Only an unreachable store yields 503; notes can still
// be read and written while search or the summarizer are down.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    healthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.deps)),
	}
	code := http.StatusOK

	for _, dep := range h.deps {
		state, err := dep.check(checkCtx)
		resp.Checks[dep.name] = state
		if err == nil {
			continue
		}
		logger.WarnContext(ctx, "health check failed", "dependency", dep.name, "error", err)
		resp.Issues = append(resp.Issues, dep.name+"_unavailable")
		if dep.critical {
			resp.Status = unhealthy
			code = http.StatusServiceUnavailable
		} else if resp.Status == healthy {
			resp.Status = degraded
		}
	}

	writeJSON(w, r, code, resp)
}
