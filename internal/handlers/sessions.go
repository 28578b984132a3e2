package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/search"
	"knowledge-tool/internal/service"
)

// keepAliveInterval is how often an idle event stream sends a comment line.
const keepAliveInterval = 15 * time.Second

// SessionsHandler serves debounced search sessions and their event streams.
type SessionsHandler struct {
	noteService service.NoteService
	keepAlive   time.Duration
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(noteService service.NoteService) *SessionsHandler {
	return &SessionsHandler{
		noteService: noteService,
		keepAlive:   keepAliveInterval,
	}
}

// SessionResponse describes an open session.
type SessionResponse struct {
	ID    string              `json:"id"`
	State search.SessionState `json:"state"`
}

// SessionInputRequest represents the HTTP request payload for session input.
type SessionInputRequest struct {
	Q            string `json:"q" validate:"max=200"`
	IncludeTrash bool   `json:"includeTrash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Tag          string `json:"tag" validate:"max=100"`
}

// Criteria converts the request to search criteria.
func (req SessionInputRequest) Criteria() (search.Criteria, error) {
	from, err := parseDate(req.From)
	if err != nil {
		return search.Criteria{}, fmt.Errorf("from: %w", err)
	}
	to, err := parseDate(req.To)
	if err != nil {
		return search.Criteria{}, fmt.Errorf("to: %w", err)
	}
	if from != nil && to != nil && from.After(search.EndOfDay(*to)) {
		return search.Criteria{}, errors.New("from must not be after to")
	}

	c := search.Criteria{
		Term:         req.Q,
		IncludeTrash: req.IncludeTrash,
		Tag:          req.Tag,
	}
	if from != nil || to != nil {
		c.DateRange = &search.DateRange{From: from, To: to}
	}
	return c, nil
}

// Create handles POST /api/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.noteService.NewSession(r.Context())
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to open search session")
		return
	}
	writeJSON(w, r, http.StatusCreated, SessionResponse{ID: sess.ID(), State: sess.State()})
}

// Input handles POST /api/sessions/{id}/input.
func (h *SessionsHandler) Input(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.noteService.Session(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to find search session")
		return
	}

	var req SessionInputRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	criteria, err := req.Criteria()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Input(criteria); err != nil {
		if errors.Is(err, search.ErrClosed) {
			writeError(w, http.StatusGone, "Search session closed")
			return
		}
		handleServiceError(w, ctx, err, "Failed to update search session")
		return
	}
	writeJSON(w, r, http.StatusAccepted, SessionResponse{ID: sess.ID(), State: sess.State()})
}

// Events handles GET /api/sessions/{id}/events as a server-sent events stream. Each
// committed search is sent as a "results" event. A session has a single stream; a second
// concurrent stream would split the updates between them.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.noteService.Session(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to find search session")
		return
	}
	ctx = contextutil.With(ctx, "session_id", sess.ID())
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	// Set up Server-Sent Events headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(u search.Update) error {
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: results\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if last, ok := sess.Last(); ok {
		if err := send(last); err != nil {
			return
		}
	} else {
		_, _ = fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sess.Updates():
			if !ok {
				_, _ = fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if err := send(u); err != nil {
				logger.WarnContext(ctx, "failed to write session event", "error", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Delete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.noteService.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r.Context(), err, "Failed to close search session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
