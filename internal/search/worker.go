package search

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"knowledge-tool/internal/storage"

	"golang.org/x/sync/errgroup"
)

const (
	// RequestTypeSearch is the only request type the worker accepts.
	RequestTypeSearch = "search"
	// ResponseTypeSearchResult tags every worker response.
	ResponseTypeSearchResult = "searchResult"

	// DefaultShardSize is the snapshot size above which filtering is split across goroutines.
	DefaultShardSize = 5000

	requestBuffer = 8
)

// Request asks the worker to filter a snapshot.
type Request struct {
	Type         string               `json:"type"`
	ID           uint64               `json:"id"`
	Items        []storage.NoteRecord `json:"items"`
	Term         string               `json:"term"`
	IncludeTrash bool                 `json:"includeTrash"`
	DateRange    *DateRange           `json:"dateRange,omitempty"`
	Tag          string               `json:"tag,omitempty"`

	ctx context.Context
}

// Criteria returns the filter criteria carried by the request.
func (r Request) Criteria() Criteria {
	return Criteria{
		Term:         r.Term,
		IncludeTrash: r.IncludeTrash,
		DateRange:    r.DateRange,
		Tag:          r.Tag,
	}
}

// WithContext returns a copy of r that the worker abandons once ctx is done.
func (r Request) WithContext(ctx context.Context) Request {
	r.ctx = ctx
	return r
}

func (r Request) context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Response carries the result of one request back to the coordinator.
type Response struct {
	Type    string               `json:"type"`
	ID      uint64               `json:"id"`
	Term    string               `json:"term"`
	Results []storage.NoteRecord `json:"results"`
	Err     error                `json:"-"`
}

type filterFunc func([]storage.NoteRecord, Criteria) []storage.NoteRecord

// Worker runs filter requests on a single long-lived goroutine.
// It keeps no state between requests and never modifies the snapshots it receives.
type Worker struct {
	requests  chan Request
	responses chan Response
	quit      chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once

	shardSize int
	filter    filterFunc
}

// NewWorker creates a worker. Call Start to begin processing.
func NewWorker(shardSize int) *Worker {
	if shardSize <= 0 {
		shardSize = DefaultShardSize
	}
	return &Worker{
		requests:  make(chan Request, requestBuffer),
		responses: make(chan Response),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		shardSize: shardSize,
		filter:    Filter,
	}
}

// Requests returns the channel requests are posted on.
func (w *Worker) Requests() chan<- Request {
	return w.requests
}

// Responses returns the channel responses are delivered on.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.stopped
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.loop()
}

// Stop asks the worker to exit and waits for it.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
	<-w.stopped
}

func (w *Worker) loop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			resp := w.handle(req)
			select {
			case w.responses <- resp:
			case <-w.quit:
				return
			}
		}
	}
}

func (w *Worker) handle(req Request) (resp Response) {
	resp = Response{Type: ResponseTypeSearchResult, ID: req.ID, Term: req.Term}

	defer func() {
		if r := recover(); r != nil {
			resp.Results = nil
			resp.Err = fmt.Errorf("%w: %v", ErrWorkerCrashed, r)
		}
	}()

	if req.Type != RequestTypeSearch {
		resp.Err = fmt.Errorf("%w: %q", ErrBadRequest, req.Type)
		return resp
	}

	ctx := req.context()
	if err := ctx.Err(); err != nil {
		resp.Err = err
		return resp
	}

	resp.Results, resp.Err = w.run(ctx, req.Items, req.Criteria())
	return resp
}

// run filters items, splitting large snapshots into shards filtered concurrently.
func (w *Worker) run(ctx context.Context, items []storage.NoteRecord, c Criteria) ([]storage.NoteRecord, error) {
	if len(items) <= w.shardSize {
		return w.filter(items, c), nil
	}

	shards := (len(items) + w.shardSize - 1) / w.shardSize
	parts := make([][]storage.NoteRecord, shards)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < shards; i++ {
		start := i * w.shardSize
		end := min(start+w.shardSize, len(items))

		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrWorkerCrashed, r)
				}
			}()
			parts[i] = w.filter(items[start:end], c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var total int
	for _, p := range parts {
		total += len(p)
	}
	merged := make([]storage.NoteRecord, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}

	SortNewestFirst(merged)
	return merged, nil
}
