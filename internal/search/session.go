package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"knowledge-tool/internal/storage"
)

// SessionState is the phase of a search session.
type SessionState int

const (
	// StateIdle means no request is pending; the last committed results stand.
	StateIdle SessionState = iota
	// StateDebouncing means input changed and the debounce timer is armed.
	StateDebouncing
	// StateRequesting means a request has been dispatched to the worker.
	StateRequesting
	// StateResolving means a response arrived and is being committed or discarded.
	StateResolving
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateRequesting:
		return "requesting"
	case StateResolving:
		return "resolving"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// MarshalText renders the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source loads the snapshot a session searches over.
type Source interface {
	GetAll(ctx context.Context, includeTrash bool) ([]storage.NoteRecord, error)
}

// Update is published for every committed search of a session.
type Update struct {
	Criteria Criteria             `json:"criteria"`
	Results  []storage.NoteRecord `json:"results"`
	Error    string               `json:"error,omitempty"`
	At       time.Time            `json:"at"`
}

const updateBuffer = 16

type pendingInput struct {
	criteria Criteria
	seq      uint64
}

// Session is one logical search box: input is debounced, the snapshot is loaded from
// source and searched on the session's own coordinator, and only the outcome of the
// latest input is published on Updates.
type Session struct {
	id     string
	coord  *Coordinator
	source Source
	logger *slog.Logger

	debouncer *Debouncer[pendingInput]
	updates   chan Update

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    SessionState
	inputSeq uint64
	last     *Update
	closed   bool
	inflight sync.WaitGroup
}

// NewSession creates a session. It takes ownership of coord and closes it on Close.
func NewSession(id string, coord *Coordinator, source Source, delay time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:      id,
		coord:   coord,
		source:  source,
		logger:  logger.With("session_id", id),
		updates: make(chan Update, updateBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.debouncer = NewDebouncer(delay, s.run)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the most recent published update, if any.
func (s *Session) Last() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Update{}, false
	}
	return *s.last, true
}

// Updates returns the channel committed results are published on. It is closed by Close.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Input records new search criteria and restarts the debounce timer.
func (s *Session) Input(c Criteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.inputSeq++
	s.state = StateDebouncing
	s.debouncer.Trigger(pendingInput{criteria: c, seq: s.inputSeq})
	return nil
}

func (s *Session) run(in pendingInput) {
	s.mu.Lock()
	if s.closed || in.seq != s.inputSeq {
		s.mu.Unlock()
		return
	}
	s.state = StateRequesting
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	update := Update{Criteria: in.criteria}

	items, err := s.source.GetAll(s.ctx, in.criteria.IncludeTrash)
	if err != nil {
		err = fmt.Errorf("failed to load notes: %w", err)
	} else {
		var res Result
		res, err = s.coord.SearchCriteria(s.ctx, items, in.criteria)
		update.Results = res.Results
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || in.seq != s.inputSeq {
		// Newer input arrived while this search ran
		return
	}
	s.state = StateResolving

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.state = StateIdle
			return
		}
		s.logger.Warn("session search failed", "term", in.criteria.Term, "error", err)
		update.Error = err.Error()
	}
	if update.Results == nil {
		update.Results = []storage.NoteRecord{}
	}
	update.At = time.Now()

	s.last = &update
	s.publishLocked(update)
	s.state = StateIdle
}

func (s *Session) publishLocked(u Update) {
	select {
	case s.updates <- u:
		return
	default:
	}
	// Drop the oldest update so the newest is always delivered
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- u:
	default:
	}
}

// Close stops the debouncer, cancels any running search and closes Updates.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = StateIdle
	s.mu.Unlock()

	s.debouncer.Stop()
	s.cancel()
	s.inflight.Wait()

	close(s.updates)
	return s.coord.Close()
}
