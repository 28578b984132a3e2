package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

// SearchHandler serves the shared search box.
type SearchHandler struct {
	noteService service.NoteService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(noteService service.NoteService) *SearchHandler {
	return &SearchHandler{noteService: noteService}
}

// SearchResponse represents the HTTP response payload for a search. Term is the term the
// results belong to, which may be a newer search's term when this one was superseded.
type SearchResponse struct {
	Term       string               `json:"term"`
	Generation uint64               `json:"generation"`
	Superseded bool                 `json:"superseded"`
	Results    []storage.NoteRecord `json:"results"`
	Count      int                  `json:"count"`
}

// searchRequestFromQuery builds a service request from q, includeTrash, from, to and tag.
func searchRequestFromQuery(r *http.Request) (service.SearchRequest, error) {
	q := r.URL.Query()

	includeTrash, err := parseBool(r, "includeTrash")
	if err != nil {
		return service.SearchRequest{}, err
	}
	from, err := parseDateParam(r, "from")
	if err != nil {
		return service.SearchRequest{}, err
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		return service.SearchRequest{}, err
	}

	req := service.SearchRequest{
		Term:         q.Get("q"),
		IncludeTrash: includeTrash,
		From:         from,
		To:           to,
		Tag:          q.Get("tag"),
	}
	return req, validateSearchRequest(req)
}

func validateSearchRequest(req service.SearchRequest) error {
	return validateStruct(struct {
		Term string `json:"q" validate:"max=200"`
		Tag  string `json:"tag" validate:"max=100"`
	}{req.Term, req.Tag})
}

// Search handles GET /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.noteService.Search(r.Context(), req)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to search notes")
		return
	}

	writeJSON(w, r, http.StatusOK, SearchResponse{
		Term:       res.Term,
		Generation: res.Generation,
		Superseded: res.Superseded,
		Results:    res.Results,
		Count:      len(res.Results),
	})
}

// StatusResponse reports the shared search state.
type StatusResponse struct {
	service.SearchStatus
	CheckedAt time.Time `json:"checkedAt"`
}

// Status handles GET /api/search/status.
func (h *SearchHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{
		SearchStatus: h.noteService.SearchStatus(),
		CheckedAt:    time.Now().UTC(),
	})
}

// StatusEvents handles GET /api/search/status/events as a server-sent events stream of
// "status" events, one per change of the shared search state.
func (h *SearchHandler) StatusEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	statuses, err := h.noteService.WatchSearch(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to watch search")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for status := range statuses {
		data, err := json.Marshal(StatusResponse{SearchStatus: status, CheckedAt: time.Now().UTC()})
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode search status", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}
