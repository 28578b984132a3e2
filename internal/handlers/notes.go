package handlers

import (
	"net/http"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

// NotesHandler serves the note, trash, path and tag endpoints.
type NotesHandler struct {
	noteService service.NoteService
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(noteService service.NoteService) *NotesHandler {
	return &NotesHandler{noteService: noteService}
}

// CreateNoteRequest represents the HTTP request payload for creating a note.
type CreateNoteRequest struct {
	Title string   `json:"title" validate:"max=500"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags" validate:"max=64,dive,max=100"`
	Path  string   `json:"path" validate:"omitempty,startswith=/,max=500"`
}

// UpdateNoteRequest represents the HTTP request payload for a partial note update.
type UpdateNoteRequest struct {
	Title *string   `json:"title" validate:"omitempty,max=500"`
	Body  *string   `json:"body"`
	Tags  *[]string `json:"tags" validate:"omitempty,max=64,dive,max=100"`
	Path  *string   `json:"path" validate:"omitempty,startswith=/,max=500"`
}

// MarkReadRequest represents the HTTP request payload for the read flag.
type MarkReadRequest struct {
	Read *bool `json:"read" validate:"required"`
}

// NotesResponse wraps a list of notes.
type NotesResponse struct {
	Notes []storage.NoteRecord `json:"notes"`
	Count int                  `json:"count"`
}

// EmptyTrashResponse reports how many notes were removed.
type EmptyTrashResponse struct {
	Removed int64 `json:"removed"`
}

// TagsResponse wraps the tag counts.
type TagsResponse struct {
	Tags []storage.TagCount `json:"tags"`
}

func notesResponse(notes []storage.NoteRecord) NotesResponse {
	if notes == nil {
		notes = []storage.NoteRecord{}
	}
	return NotesResponse{Notes: notes, Count: len(notes)}
}

// List handles GET /api/notes.
func (h *NotesHandler) List(w http.ResponseWriter, r *http.Request) {
	includeTrash, err := parseBool(r, "includeTrash")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := h.noteService.List(r.Context(), includeTrash)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to list notes")
		return
	}
	writeJSON(w, r, http.StatusOK, notesResponse(notes))
}

// Create handles POST /api/notes.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid create request", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Create(ctx, service.CreateNoteRequest{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
		Path:  req.Path,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create note")
		return
	}
	writeJSON(w, r, http.StatusCreated, note)
}

// Get handles GET /api/notes/{id}.
func (h *NotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to get note")
		return
	}
	writeJSON(w, r, http.StatusOK, note)
}

// Update handles PUT /api/notes/{id}.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid update request", "note_id", id, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Update(ctx, id, service.UpdateNoteRequest{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
		Path:  req.Path,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update note")
		return
	}
	writeJSON(w, r, http.StatusOK, note)
}

// Delete handles DELETE /api/notes/{id}.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.noteService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r.Context(), err, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trash handles POST /api/notes/{id}/trash.
func (h *NotesHandler) Trash(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Trash(r.Context(), id)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to move note to trash")
		return
	}
	writeJSON(w, r, http.StatusOK, note)
}

// Restore handles POST /api/notes/{id}/restore.
func (h *NotesHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Restore(r.Context(), id)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to restore note")
		return
	}
	writeJSON(w, r, http.StatusOK, note)
}

// MarkRead handles POST /api/notes/{id}/read.
func (h *NotesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MarkReadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.noteService.MarkRead(r.Context(), id, *req.Read); err != nil {
		handleServiceError(w, r.Context(), err, "Failed to mark note read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByPath handles GET /api/paths?path=.
func (h *NotesHandler) ListByPath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	notes, err := h.noteService.ListByPath(r.Context(), path)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to list notes")
		return
	}
	writeJSON(w, r, http.StatusOK, notesResponse(notes))
}

// ListTrash handles GET /api/trash.
func (h *NotesHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.ListByPath(r.Context(), storage.TrashPath)
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to list trash")
		return
	}
	writeJSON(w, r, http.StatusOK, notesResponse(notes))
}

// EmptyTrash handles DELETE /api/trash.
func (h *NotesHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	removed, err := h.noteService.EmptyTrash(r.Context())
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to empty trash")
		return
	}
	writeJSON(w, r, http.StatusOK, EmptyTrashResponse{Removed: removed})
}

// Tags handles GET /api/tags.
func (h *NotesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.noteService.Tags(r.Context())
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to list tags")
		return
	}
	if tags == nil {
		tags = []storage.TagCount{}
	}
	writeJSON(w, r, http.StatusOK, TagsResponse{Tags: tags})
}
