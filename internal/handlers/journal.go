package handlers

import (
	"net/http"
	"time"

	"knowledge-tool/internal/service"
)

// JournalHandler serves the daily journal and the weekly review.
type JournalHandler struct {
	noteService service.NoteService
	now         func() time.Time
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(noteService service.NoteService) *JournalHandler {
	return &JournalHandler{
		noteService: noteService,
		now:         time.Now,
	}
}

// Today handles GET /api/journal/today.
func (h *JournalHandler) Today(w http.ResponseWriter, r *http.Request) {
	entry, err := h.noteService.TodayJournal(r.Context(), h.now())
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to open today's journal")
		return
	}
	writeJSON(w, r, http.StatusOK, entry)
}

// Review handles GET /api/journal/review?from=&to=.
func (h *JournalHandler) Review(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.noteService.WeeklyReview(r.Context(), service.ReviewRequest{From: from, To: to})
	if err != nil {
		handleServiceError(w, r.Context(), err, "Failed to build weekly review")
		return
	}
	writeJSON(w, r, http.StatusOK, review)
}
