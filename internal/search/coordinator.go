package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/storage"
)

// DefaultTimeout bounds how long a search waits for the worker.
const DefaultTimeout = 10 * time.Second

// Search outcomes reported to Metrics.
const (
	OutcomeCommitted = "committed"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeCanceled  = "canceled"
)

// Metrics receives coordinator events. Implementations must be safe for concurrent use.
type Metrics interface {
	SearchCompleted(outcome string, d time.Duration)
	StaleResponse()
}

type noopMetrics struct{}

func (noopMetrics) SearchCompleted(string, time.Duration) {}
func (noopMetrics) StaleResponse()                        {}

// State is a snapshot of the coordinator, published to subscribers on every change.
type State struct {
	Searching  bool                 `json:"searching"`
	Term       string               `json:"term"`
	Generation uint64               `json:"generation"`
	Results    []storage.NoteRecord `json:"results"`
	Err        error                `json:"-"`
}

// Result is what a single Search call resolves with.
type Result struct {
	// Generation identifies the request whose results were committed.
	Generation uint64
	// Term is the term of the committed request. It differs from the caller's term when
	// the caller's request was superseded.
	Term       string
	Results    []storage.NoteRecord
	Superseded bool
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithTimeout sets how long Search waits for a response.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.timeout = d
		return nil
	}
}

// WithShardSize sets the snapshot size above which the worker filters in parallel.
func WithShardSize(n int) Option {
	return func(c *Coordinator) error {
		if n <= 0 {
			return fmt.Errorf("shard size must be positive, got %d", n)
		}
		c.shardSize = n
		return nil
	}
}

// WithMetrics reports search outcomes and stale responses to m.
func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) error {
		if m != nil {
			c.metrics = m
		}
		return nil
	}
}

func withFilter(f filterFunc) Option {
	return func(c *Coordinator) error {
		c.filter = f
		return nil
	}
}

type waiter struct {
	ch      chan waitResult
	started time.Time
}

type waitResult struct {
	result Result
	err    error
}

// Coordinator runs searches on a background Worker. Only the most recently issued
// request may commit results; responses to superseded requests are dropped.
type Coordinator struct {
	worker    *Worker
	timeout   time.Duration
	shardSize int
	metrics   Metrics
	filter    filterFunc

	mu        sync.Mutex
	nextID    uint64
	current   uint64
	term      string
	cancelReq context.CancelFunc
	searching bool
	committed Result
	err       error
	pending   map[uint64]*waiter
	subs      map[int]chan State
	nextSub   int
	closed    bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewCoordinator starts a worker and returns a coordinator bound to it.
func NewCoordinator(opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		timeout:   DefaultTimeout,
		shardSize: DefaultShardSize,
		metrics:   noopMetrics{},
		pending:   make(map[uint64]*waiter),
		subs:      make(map[int]chan State),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to start search worker: %w", err)
		}
	}

	c.worker = NewWorker(c.shardSize)
	if c.filter != nil {
		c.worker.filter = c.filter
	}
	c.worker.Start()

	c.wg.Add(1)
	go c.dispatch()

	return c, nil
}

// Search filters items on the worker and waits for the outcome.
// When a newer search supersedes this one, it resolves with the newer search's results.
func (c *Coordinator) Search(ctx context.Context, items []storage.NoteRecord, term string, includeTrash bool, dateRange *DateRange) ([]storage.NoteRecord, error) {
	res, err := c.SearchCriteria(ctx, items, Criteria{
		Term:         term,
		IncludeTrash: includeTrash,
		DateRange:    dateRange,
	})
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// SearchCriteria is Search with the full set of criteria, including the tag filter.
func (c *Coordinator) SearchCriteria(ctx context.Context, items []storage.NoteRecord, criteria Criteria) (Result, error) {
	if c == nil || c.worker == nil {
		return Result{}, ErrUnavailable
	}

	logger := contextutil.LoggerFromContext(ctx)

	snapshot := make([]storage.NoteRecord, len(items))
	for i := range items {
		snapshot[i] = items[i].Clone()
	}

	id, w, reqCtx, err := c.begin(criteria.Term)
	if err != nil {
		return Result{}, err
	}

	logger.Debug("dispatching search", "generation", id, "term", criteria.Term, "items", len(snapshot))

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	req := Request{
		Type:         RequestTypeSearch,
		ID:           id,
		Items:        snapshot,
		Term:         criteria.Term,
		IncludeTrash: criteria.IncludeTrash,
		DateRange:    criteria.DateRange,
		Tag:          criteria.Tag,
	}.WithContext(reqCtx)

	select {
	case c.worker.Requests() <- req:
	case res := <-w.ch:
		// Superseded and resolved before the worker even took the request
		return res.result, res.err
	case <-timer.C:
		return c.fail(id, w, ErrTimeout, OutcomeTimeout, logger)
	case <-ctx.Done():
		return c.fail(id, w, ctx.Err(), OutcomeCanceled, logger)
	case <-c.done:
		return Result{}, ErrClosed
	}

	select {
	case res := <-w.ch:
		return res.result, res.err
	case <-timer.C:
		return c.fail(id, w, ErrTimeout, OutcomeTimeout, logger)
	case <-ctx.Done():
		return c.fail(id, w, ctx.Err(), OutcomeCanceled, logger)
	}
}

// begin registers a new generation, cancelling the request it supersedes.
func (c *Coordinator) begin(term string) (uint64, *waiter, context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, nil, ErrClosed
	}

	if c.cancelReq != nil {
		c.cancelReq()
	}
	reqCtx, cancel := context.WithCancel(context.Background())

	c.nextID++
	id := c.nextID
	c.current = id
	c.term = term
	c.cancelReq = cancel
	c.searching = true

	w := &waiter{ch: make(chan waitResult, 1), started: time.Now()}
	c.pending[id] = w

	c.publishLocked()
	return id, w, reqCtx, nil
}

// fail gives up on request id. If id is still the latest request the searching flag is
// cleared and the requests it superseded resolve with the last committed results. A caller
// that canceled its own context says nothing about search health, so only timeouts set
// the error slot. If id was already superseded only its caller gives up.
func (c *Coordinator) fail(id uint64, w *waiter, err error, outcome string, logger *slog.Logger) (Result, error) {
	c.mu.Lock()

	if _, ok := c.pending[id]; !ok {
		c.mu.Unlock()
		// Settled concurrently; the outcome is already buffered
		res := <-w.ch
		return res.result, res.err
	}

	if id != c.current {
		delete(c.pending, id)
		c.metrics.SearchCompleted(outcome, time.Since(w.started))
		c.mu.Unlock()
		return Result{}, err
	}

	if outcome == OutcomeCanceled {
		logger.Debug("search canceled by caller", "generation", id, "term", c.term)
	} else {
		logger.Warn("search failed", "generation", id, "term", c.term, "error", err)
	}
	c.settleLocked(id, Result{}, err, outcome)
	c.mu.Unlock()
	return Result{}, err
}

func (c *Coordinator) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case resp := <-c.worker.Responses():
			c.resolve(resp)
		}
	}
}

// resolve applies a worker response. Responses are matched by generation, not arrival order.
func (c *Coordinator) resolve(resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if resp.ID != c.current || !c.searching {
		c.metrics.StaleResponse()
		return
	}

	if resp.Err != nil {
		c.settleLocked(resp.ID, Result{}, resp.Err, OutcomeError)
		return
	}

	c.settleLocked(resp.ID, Result{
		Generation: resp.ID,
		Term:       resp.Term,
		Results:    resp.Results,
	}, nil, OutcomeCommitted)
}

// settleLocked finishes generation id. On success the result is committed; on failure the
// last committed result is kept and, unless the caller canceled, the error slot is set.
// Every waiter up to id resolves: id itself with err, the requests it superseded with the
// committed results.
func (c *Coordinator) settleLocked(id uint64, res Result, err error, outcome string) {
	switch {
	case err == nil:
		c.committed = res
		c.err = nil
	case outcome != OutcomeCanceled:
		c.err = err
	}
	c.searching = false
	if c.cancelReq != nil {
		c.cancelReq()
		c.cancelReq = nil
	}

	for wid, w := range c.pending {
		if wid > id {
			continue
		}
		delete(c.pending, wid)

		if wid != id {
			out := waitResult{result: c.copyCommittedLocked()}
			out.result.Superseded = true
			w.ch <- out
			continue
		}

		c.metrics.SearchCompleted(outcome, time.Since(w.started))
		out := waitResult{err: err}
		if err == nil {
			out.result = c.copyCommittedLocked()
		}
		w.ch <- out
	}

	c.publishLocked()
}

func (c *Coordinator) copyCommittedLocked() Result {
	res := c.committed
	res.Results = cloneAll(c.committed.Results)
	return res
}

// IsSearching reports whether the latest request is still outstanding.
func (c *Coordinator) IsSearching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searching
}

// Results returns the last committed results.
func (c *Coordinator) Results() []storage.NoteRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.committed.Results)
}

// Err returns the error of the last failed search, or nil once a search commits.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// State returns the current coordinator state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() State {
	return State{
		Searching:  c.searching,
		Term:       c.term,
		Generation: c.committed.Generation,
		Results:    cloneAll(c.committed.Results),
		Err:        c.err,
	}
}

// Subscribe returns a channel receiving the latest state after every change, and a
// function that cancels the subscription. Slow subscribers only see the newest state.
func (c *Coordinator) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Coordinator) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	state := c.stateLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// Close stops the worker. Outstanding and later searches fail with ErrClosed.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancelReq != nil {
		c.cancelReq()
		c.cancelReq = nil
	}
	for id, w := range c.pending {
		delete(c.pending, id)
		w.ch <- waitResult{err: ErrClosed}
	}
	c.searching = false
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	close(c.done)
	c.worker.Stop()
	c.wg.Wait()
	return nil
}

// IsUnavailable reports whether err means search cannot run at all, as opposed to a
// single failed request.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrClosed) || errors.Is(err, ErrWorkerCrashed)
}

func cloneAll(notes []storage.NoteRecord) []storage.NoteRecord {
	if notes == nil {
		return nil
	}
	out := make([]storage.NoteRecord, len(notes))
	for i := range notes {
		out[i] = notes[i].Clone()
	}
	return out
}
