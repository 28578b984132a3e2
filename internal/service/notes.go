package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_service.go -package=mocks -mock_names=NoteService=MockNoteService knowledge-tool/internal/service NoteService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/search"
	"knowledge-tool/internal/storage"
	"knowledge-tool/internal/summary"
)

// Metrics receives service events. Implementations must be safe for concurrent use.
type Metrics interface {
	NoteOperation(operation string, err error)
	SessionOpened()
	SessionClosed()
}

type noopMetrics struct{}

func (noopMetrics) NoteOperation(string, error) {}
func (noopMetrics) SessionOpened()              {}
func (noopMetrics) SessionClosed()              {}

// CreateNoteRequest represents a request to create a note.
type CreateNoteRequest struct {
	Title string
	Body  string
	Tags  []string
	Path  string
}

// UpdateNoteRequest changes the fields that are set and leaves the rest alone.
type UpdateNoteRequest struct {
	Title *string
	Body  *string
	Tags  *[]string
	Path  *string
}

// NoteService provides note management, search and journal functionality.
type NoteService interface {
	// Create adds a new note and returns it with its ID and timestamps set.
	Create(ctx context.Context, req CreateNoteRequest) (*storage.NoteRecord, error)
	// Get returns a single note.
	Get(ctx context.Context, id int64) (*storage.NoteRecord, error)
	// Update applies a partial update and returns the stored note.
	Update(ctx context.Context, id int64, req UpdateNoteRequest) (*storage.NoteRecord, error)
	// Delete permanently removes a note.
	Delete(ctx context.Context, id int64) error
	// List returns notes newest first, optionally including the trash.
	List(ctx context.Context, includeTrash bool) ([]storage.NoteRecord, error)
	// ListByPath returns the notes stored under path exactly.
	ListByPath(ctx context.Context, path string) ([]storage.NoteRecord, error)
	// Trash soft-deletes a note.
	Trash(ctx context.Context, id int64) (*storage.NoteRecord, error)
	// Restore moves a trashed note back to its original path.
	Restore(ctx context.Context, id int64) (*storage.NoteRecord, error)
	// EmptyTrash permanently removes every trashed note.
	EmptyTrash(ctx context.Context) (int64, error)
	// MarkRead sets the read flag of a note.
	MarkRead(ctx context.Context, id int64, read bool) error
	// Tags counts the tags of notes outside the trash.
	Tags(ctx context.Context) ([]storage.TagCount, error)

	// Search runs a search on the shared coordinator.
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	// SearchStatus reports the shared coordinator's state.
	SearchStatus() SearchStatus
	// WatchSearch streams the shared coordinator's status until ctx is done.
	WatchSearch(ctx context.Context) (<-chan SearchStatus, error)
	// NewSession opens a debounced search session with its own coordinator.
	NewSession(ctx context.Context) (*search.Session, error)
	// Session looks up an open session.
	Session(id string) (*search.Session, error)
	// CloseSession closes and forgets a session.
	CloseSession(ctx context.Context, id string) error

	// TodayJournal returns the journal entry for now's date, creating it if needed.
	TodayJournal(ctx context.Context, now time.Time) (*storage.NoteRecord, error)
	// WeeklyReview collects the journal entries of a day range and summarizes them.
	WeeklyReview(ctx context.Context, req ReviewRequest) (Review, error)

	// Selection returns the current editor selection.
	Selection() Selection
	// Select makes an existing note the selected one.
	Select(ctx context.Context, id int64) (Selection, error)
	// BeginDraft starts creating a new note.
	BeginDraft(draft storage.NoteRecord) Selection
	// ClearSelection resets the selection.
	ClearSelection() Selection

	// Close closes every session and the shared coordinator.
	Close() error
}

// Options configures a NoteService. Zero values are valid.
type Options struct {
	// Coordinator serves Search. Nil makes Search fail with ErrSearchUnavailable.
	Coordinator *search.Coordinator
	// NewCoordinator creates the coordinator of each session. Nil disables sessions.
	NewCoordinator func() (*search.Coordinator, error)
	// Debounce is the session input delay. Zero means search.DefaultDebounce.
	Debounce time.Duration
	// Summarizer writes review summaries. Nil means summary.TemplateSummarizer.
	Summarizer summary.Summarizer
	Metrics    Metrics
	// Now is the clock used for review defaults. Nil means time.Now.
	Now func() time.Time
}

// noteService implements NoteService.
type noteService struct {
	store          storage.NoteStore
	coord          *search.Coordinator
	newCoordinator func() (*search.Coordinator, error)
	debounce       time.Duration
	summarizer     summary.Summarizer
	metrics        Metrics
	now            func() time.Time
	logger         *slog.Logger

	sessionsMu sync.Mutex
	sessions   map[string]*search.Session

	selectionMu sync.Mutex
	selection   Selection
}

// NewNoteService creates a new NoteService.
func NewNoteService(store storage.NoteStore, opts Options) NoteService {
	s := &noteService{
		store:          store,
		coord:          opts.Coordinator,
		newCoordinator: opts.NewCoordinator,
		debounce:       opts.Debounce,
		summarizer:     opts.Summarizer,
		metrics:        opts.Metrics,
		now:            opts.Now,
		logger:         slog.Default(),
		sessions:       make(map[string]*search.Session),
	}
	if s.debounce <= 0 {
		s.debounce = search.DefaultDebounce
	}
	if s.summarizer == nil {
		s.summarizer = summary.TemplateSummarizer{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create adds a new note.
func (s *noteService) Create(ctx context.Context, req CreateNoteRequest) (*storage.NoteRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Path == storage.TrashPath {
		return nil, invalidField("path", "cannot create a note in the trash")
	}

	note := &storage.NoteRecord{
		Title: req.Title,
		Body:  req.Body,
		Tags:  normalizeTags(req.Tags),
		Path:  req.Path,
	}
	_, err := s.store.Add(ctx, note)
	s.metrics.NoteOperation("create", err)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create note", "error", err)
		return nil, WrapError(err, "failed to create note")
	}

	logger.InfoContext(ctx, "note created", "note_id", note.ID, "path", note.Path)
	return note, nil
}

// Get returns a single note.
func (s *noteService) Get(ctx context.Context, id int64) (*storage.NoteRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	note, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to get note", id)
	}
	return note, nil
}

// Update applies a partial update.
func (s *noteService) Update(ctx context.Context, id int64, req UpdateNoteRequest) (*storage.NoteRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateID(id); err != nil {
		return nil, err
	}

	note, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to get note", id)
	}

	if req.Path != nil && *req.Path != note.Path {
		if *req.Path == storage.TrashPath {
			return nil, invalidField("path", "use trash to move a note to the trash")
		}
		if note.InTrash() {
			return nil, fmt.Errorf("%w: note %d is in the trash, restore it before moving it", ErrConflict, id)
		}
		note.Path = *req.Path
	}
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Body != nil {
		note.Body = *req.Body
	}
	if req.Tags != nil {
		note.Tags = normalizeTags(*req.Tags)
	}

	err = s.store.Update(ctx, note)
	s.metrics.NoteOperation("update", err)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to update note", id)
	}

	logger.InfoContext(ctx, "note updated", "note_id", id)
	return note, nil
}

// Delete permanently removes a note and drops it from the selection.
func (s *noteService) Delete(ctx context.Context, id int64) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateID(id); err != nil {
		return err
	}

	err := s.store.Delete(ctx, id)
	s.metrics.NoteOperation("delete", err)
	if err != nil {
		return s.storeError(ctx, err, "failed to delete note", id)
	}

	s.forget(id)
	logger.InfoContext(ctx, "note deleted", "note_id", id)
	return nil
}

// List returns notes newest first.
func (s *noteService) List(ctx context.Context, includeTrash bool) ([]storage.NoteRecord, error) {
	notes, err := s.store.GetAll(ctx, includeTrash)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list notes", "error", err)
		return nil, WrapError(err, "failed to list notes")
	}
	return notes, nil
}

// ListByPath returns the notes stored under path.
func (s *noteService) ListByPath(ctx context.Context, path string) ([]storage.NoteRecord, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalidField("path", "cannot be empty")
	}

	notes, err := s.store.GetByPath(ctx, path)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list notes by path", "path", path, "error", err)
		return nil, WrapError(err, "failed to list notes by path")
	}
	return notes, nil
}

// Trash soft-deletes a note. Trashing a note twice is not an error.
func (s *noteService) Trash(ctx context.Context, id int64) (*storage.NoteRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	err := s.store.MoveToTrash(ctx, id)
	s.metrics.NoteOperation("trash", err)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to move note to trash", id)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "note moved to trash", "note_id", id)
	return s.Get(ctx, id)
}

// Restore moves a trashed note back. Restoring an active note is not an error.
func (s *noteService) Restore(ctx context.Context, id int64) (*storage.NoteRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	err := s.store.RestoreFromTrash(ctx, id)
	s.metrics.NoteOperation("restore", err)
	if err != nil {
		return nil, s.storeError(ctx, err, "failed to restore note", id)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "note restored", "note_id", id)
	return s.Get(ctx, id)
}

// EmptyTrash permanently removes every trashed note.
func (s *noteService) EmptyTrash(ctx context.Context) (int64, error) {
	logger := contextutil.LoggerFromContext(ctx)

	removed, err := s.store.EmptyTrash(ctx)
	s.metrics.NoteOperation("empty_trash", err)
	if err != nil {
		logger.ErrorContext(ctx, "failed to empty trash", "error", err)
		return 0, WrapError(err, "failed to empty trash")
	}

	// A selected note that was in the trash no longer exists
	if sel := s.Selection(); sel.Selected != nil {
		if _, err := s.store.GetByID(ctx, *sel.Selected); errors.Is(err, storage.ErrNotFound) {
			s.forget(*sel.Selected)
		}
	}

	logger.InfoContext(ctx, "trash emptied", "removed", removed)
	return removed, nil
}

// MarkRead sets the read flag.
func (s *noteService) MarkRead(ctx context.Context, id int64, read bool) error {
	if err := validateID(id); err != nil {
		return err
	}

	err := s.store.MarkRead(ctx, id, read)
	s.metrics.NoteOperation("mark_read", err)
	if err != nil {
		return s.storeError(ctx, err, "failed to mark note read", id)
	}
	return nil
}

// Tags counts the tags of active notes.
func (s *noteService) Tags(ctx context.Context) ([]storage.TagCount, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list tags", "error", err)
		return nil, WrapError(err, "failed to list tags")
	}
	return tags, nil
}

// Close closes every open session and the shared coordinator.
func (s *noteService) Close() error {
	s.sessionsMu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*search.Session)
	s.sessionsMu.Unlock()

	var errs []error
	for _, sess := range sessions {
		errs = append(errs, sess.Close())
		s.metrics.SessionClosed()
	}
	if s.coord != nil {
		errs = append(errs, s.coord.Close())
	}
	return errors.Join(errs...)
}

// storeError maps storage errors to service errors and logs unexpected ones.
func (s *noteService) storeError(ctx context.Context, err error, msg string, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: note %d", ErrNotFound, id)
	}
	contextutil.LoggerFromContext(ctx).ErrorContext(ctx, msg, "note_id", id, "error", err)
	return WrapError(err, msg)
}

func validateID(id int64) error {
	if id <= 0 {
		return invalidField("id", "must be positive")
	}
	return nil
}

// normalizeTags trims tags and drops empty ones. The result is never nil.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
