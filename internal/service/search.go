package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/search"
	"knowledge-tool/internal/storage"

	"github.com/google/uuid"
)

// maxSessions bounds the number of concurrently open search sessions.
const maxSessions = 256

// SearchRequest represents a search in the domain layer.
type SearchRequest struct {
	Term         string
	IncludeTrash bool
	From         *time.Time
	To           *time.Time
	Tag          string
}

// Criteria converts the request to filter criteria.
func (r SearchRequest) Criteria() search.Criteria {
	c := search.Criteria{
		Term:         r.Term,
		IncludeTrash: r.IncludeTrash,
		Tag:          r.Tag,
	}
	if r.From != nil || r.To != nil {
		c.DateRange = &search.DateRange{From: r.From, To: r.To}
	}
	return c
}

// SearchResult is the committed outcome of a search.
type SearchResult struct {
	// Term is the term the results belong to. It differs from the request's term when a
	// newer search superseded the request.
	Term       string               `json:"term"`
	Generation uint64               `json:"generation"`
	Superseded bool                 `json:"superseded"`
	Results    []storage.NoteRecord `json:"results"`
}

// SearchStatus reports whether a search is in flight and the last error.
type SearchStatus struct {
	Available  bool   `json:"available"`
	Searching  bool   `json:"searching"`
	Term       string `json:"term"`
	Generation uint64 `json:"generation"`
	Error      string `json:"error,omitempty"`
}

// Search loads the snapshot from the store and filters it on the shared coordinator.
func (s *noteService) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.From != nil && req.To != nil && req.From.After(search.EndOfDay(*req.To)) {
		return SearchResult{}, invalidField("from", "must not be after to")
	}
	if s.coord == nil {
		return SearchResult{}, ErrSearchUnavailable
	}

	items, err := s.store.GetAll(ctx, req.IncludeTrash)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load notes for search", "error", err)
		return SearchResult{}, WrapError(err, "failed to load notes for search")
	}

	res, err := s.coord.SearchCriteria(ctx, items, req.Criteria())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return SearchResult{}, err
		}
		logger.WarnContext(ctx, "search failed", "term", req.Term, "error", err)
		return SearchResult{}, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	results := res.Results
	if results == nil {
		results = []storage.NoteRecord{}
	}

	logger.InfoContext(ctx, "search completed", "term", req.Term, "results", len(results), "superseded", res.Superseded)
	return SearchResult{
		Term:       res.Term,
		Generation: res.Generation,
		Superseded: res.Superseded,
		Results:    results,
	}, nil
}

// SearchStatus reports the shared coordinator's state.
func (s *noteService) SearchStatus() SearchStatus {
	if s.coord == nil {
		return SearchStatus{Error: ErrSearchUnavailable.Error()}
	}
	return statusFromState(s.coord.State())
}

// WatchSearch streams the shared coordinator's status, starting with the current one, until
// ctx is done or the coordinator closes. A slow reader only sees the newest status.
func (s *noteService) WatchSearch(ctx context.Context) (<-chan SearchStatus, error) {
	if s.coord == nil {
		return nil, ErrSearchUnavailable
	}

	states, unsubscribe := s.coord.Subscribe()
	out := make(chan SearchStatus, 1)
	out <- s.SearchStatus()

	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-states:
				if !ok {
					return
				}
				select {
				case out <- statusFromState(state):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func statusFromState(state search.State) SearchStatus {
	status := SearchStatus{
		Available:  true,
		Searching:  state.Searching,
		Term:       state.Term,
		Generation: state.Generation,
	}
	if state.Err != nil {
		status.Error = state.Err.Error()
		status.Available = !search.IsUnavailable(state.Err)
	}
	return status
}

// NewSession opens a session backed by a fresh coordinator.
func (s *noteService) NewSession(ctx context.Context) (*search.Session, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if s.newCoordinator == nil {
		return nil, ErrSearchUnavailable
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if len(s.sessions) >= maxSessions {
		return nil, fmt.Errorf("%w: at most %d sessions may be open", ErrConflict, maxSessions)
	}

	coord, err := s.newCoordinator()
	if err != nil {
		logger.ErrorContext(ctx, "failed to create session coordinator", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	id := uuid.NewString()
	sess := search.NewSession(id, coord, s.store, s.debounce, s.logger)
	s.sessions[id] = sess
	s.metrics.SessionOpened()

	logger.InfoContext(ctx, "search session opened", "session_id", id)
	return sess, nil
}

// Session looks up an open session.
func (s *noteService) Session(id string) (*search.Session, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return sess, nil
}

// CloseSession closes a session and forgets it.
func (s *noteService) CloseSession(ctx context.Context, id string) error {
	s.sessionsMu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.sessionsMu.Unlock()

	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, id)
	}

	s.metrics.SessionClosed()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "search session closed", "session_id", id)
	return sess.Close()
}
