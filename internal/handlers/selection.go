package handlers

import (
	"net/http"

	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

// SelectionHandler serves the editor selection.
type SelectionHandler struct {
	noteService service.NoteService
}

// NewSelectionHandler creates a new SelectionHandler.
func NewSelectionHandler(noteService service.NoteService) *SelectionHandler {
	return &SelectionHandler{noteService: noteService}
}

// SelectRequest represents the HTTP request payload for selecting a note.
type SelectRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// Get handles GET /api/selection.
func (h *SelectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.noteService.Selection())
}

// Select handles PUT /api/selection.
func (h *SelectionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel, err := h.noteService.Select(r.Context(), req.ID)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to select note")
		return
	}
	writeJSON(w, r, http.StatusOK, sel)
}

// Draft handles POST /api/selection/draft.
func (h *SelectionHandler) Draft(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel := h.noteService.BeginDraft(storage.NoteRecord{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
		Path:  req.Path,
	})
	writeJSON(w, r, http.StatusOK, sel)
}

// Clear handles DELETE /api/selection.
func (h *SelectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.noteService.ClearSelection())
}
