package search

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"knowledge-tool/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	stale    atomic.Int64
	mu       sync.Mutex
	outcomes map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: make(map[string]int)}
}

func (m *countingMetrics) SearchCompleted(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *countingMetrics) StaleResponse() {
	m.stale.Add(1)
}

func (m *countingMetrics) count(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[outcome]
}

// gatedFilter blocks requests for term until release is closed and signals entered first.
func gatedFilter(term string, entered chan<- struct{}, release <-chan struct{}) filterFunc {
	return func(items []storage.NoteRecord, c Criteria) []storage.NoteRecord {
		if c.Term == term {
			entered <- struct{}{}
			<-release
		}
		return Filter(items, c)
	}
}

func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func TestNewCoordinator_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "zero timeout", opt: WithTimeout(0)},
		{name: "negative shard size", opt: WithShardSize(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCoordinator(tt.opt)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestCoordinator_Search(t *testing.T) {
	metrics := newCountingMetrics()
	c := newTestCoordinator(t, WithMetrics(metrics))

	got, err := c.Search(context.Background(), fixture(), "hello", false, nil)
	require.NoError(t, err)

	assert.Equal(t, []int64{3}, ids(got))
	assert.False(t, c.IsSearching())
	assert.NoError(t, c.Err())
	assert.Equal(t, []int64{3}, ids(c.Results()))
	assert.Equal(t, 1, metrics.count(OutcomeCommitted))
}

func TestCoordinator_SearchCriteria_Tag(t *testing.T) {
	c := newTestCoordinator(t)

	res, err := c.SearchCriteria(context.Background(), fixture(), Criteria{Tag: "home"})
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, ids(res.Results))
	assert.Equal(t, uint64(1), res.Generation)
	assert.False(t, res.Superseded)
}

func TestCoordinator_StaleResponseRejected(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	metrics := newCountingMetrics()
	c := newTestCoordinator(t, WithMetrics(metrics), withFilter(gatedFilter("o", entered, release)))

	items := fixture()
	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	go func() {
		res, err := c.SearchCriteria(context.Background(), items, Criteria{Term: "o"})
		first <- outcome{res, err}
	}()
	<-entered

	go func() {
		res, err := c.SearchCriteria(context.Background(), items, Criteria{Term: "old"})
		second <- outcome{res, err}
	}()
	require.Eventually(t, func() bool {
		return c.State().Term == "old"
	}, time.Second, 5*time.Millisecond)

	close(release)

	latest := <-second
	require.NoError(t, latest.err)
	assert.Equal(t, []int64{3}, ids(latest.res.Results))
	assert.Equal(t, "old", latest.res.Term)
	assert.False(t, latest.res.Superseded)

	earlier := <-first
	require.NoError(t, earlier.err)
	assert.Equal(t, []int64{3}, ids(earlier.res.Results), "superseded search must resolve with the latest results")
	assert.Equal(t, "old", earlier.res.Term)
	assert.True(t, earlier.res.Superseded)

	assert.Equal(t, []int64{3}, ids(c.Results()))
	assert.False(t, c.IsSearching())
	assert.Equal(t, int64(1), metrics.stale.Load())
}

func TestCoordinator_LatestCallerCanceled(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	metrics := newCountingMetrics()
	c := newTestCoordinator(t, WithMetrics(metrics), withFilter(gatedFilter("o", entered, release)))
	t.Cleanup(func() { close(release) })

	items := fixture()
	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	go func() {
		res, err := c.SearchCriteria(context.Background(), items, Criteria{Term: "o"})
		first <- outcome{res, err}
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		res, err := c.SearchCriteria(ctx, items, Criteria{Term: "x"})
		second <- outcome{res, err}
	}()
	require.Eventually(t, func() bool {
		return c.State().Term == "x"
	}, time.Second, 5*time.Millisecond)
	cancel()

	latest := <-second
	assert.ErrorIs(t, latest.err, context.Canceled)

	earlier := <-first
	require.NoError(t, earlier.err, "a search must not fail because a newer caller gave up")
	assert.True(t, earlier.res.Superseded)
	assert.Empty(t, earlier.res.Results)

	assert.False(t, c.IsSearching())
	assert.NoError(t, c.Err())
	assert.Equal(t, 1, metrics.count(OutcomeCanceled))
}

func TestCoordinator_Timeout(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	metrics := newCountingMetrics()
	c := newTestCoordinator(t,
		WithTimeout(50*time.Millisecond),
		WithMetrics(metrics),
		withFilter(gatedFilter("slow", entered, release)),
	)
	t.Cleanup(func() { close(release) })

	_, err := c.Search(context.Background(), fixture(), "slow", false, nil)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, c.IsSearching())
	assert.ErrorIs(t, c.Err(), ErrTimeout)
	assert.Equal(t, 1, metrics.count(OutcomeTimeout))
}

func TestCoordinator_WorkerCrash(t *testing.T) {
	crash := func(items []storage.NoteRecord, c Criteria) []storage.NoteRecord {
		if c.Term == "boom" {
			panic("filter exploded")
		}
		return Filter(items, c)
	}
	c := newTestCoordinator(t, withFilter(crash))

	_, err := c.Search(context.Background(), fixture(), "boom", false, nil)
	assert.ErrorIs(t, err, ErrWorkerCrashed)
	assert.True(t, IsUnavailable(err))
	assert.False(t, c.IsSearching())
	assert.ErrorIs(t, c.Err(), ErrWorkerCrashed)

	// No automatic retry, but the caller may search again
	got, err := c.Search(context.Background(), fixture(), "milk", false, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(got))
	assert.NoError(t, c.Err())
}

func TestCoordinator_CallerCanceled(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestCoordinator(t, withFilter(gatedFilter("slow", entered, release)))
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-entered
		cancel()
	}()

	_, err := c.Search(ctx, fixture(), "slow", false, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.IsSearching())
}

func TestCoordinator_ShardedMatchesFilter(t *testing.T) {
	c := newTestCoordinator(t, WithShardSize(2))

	items := fixture()
	for i := 0; i < 3; i++ {
		items = append(items, fixture()...)
	}
	for i := range items {
		items[i].ID = int64(i + 1)
	}

	got, err := c.Search(context.Background(), items, "o", true, nil)
	require.NoError(t, err)

	assert.Equal(t, ids(Filter(items, Criteria{Term: "o", IncludeTrash: true})), ids(got))
}

func TestCoordinator_Close(t *testing.T) {
	c, err := NewCoordinator()
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Search(context.Background(), fixture(), "x", false, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCoordinator_Unavailable(t *testing.T) {
	var c *Coordinator

	_, err := c.Search(context.Background(), fixture(), "x", false, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsUnavailable(err))
}

func TestCoordinator_Subscribe(t *testing.T) {
	c := newTestCoordinator(t)

	states, unsubscribe := c.Subscribe()
	defer unsubscribe()

	_, err := c.Search(context.Background(), fixture(), "milk", false, nil)
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case s := <-states:
			if s.Searching {
				continue
			}
			assert.Equal(t, "milk", s.Term)
			assert.Equal(t, uint64(1), s.Generation)
			assert.Equal(t, []int64{2}, ids(s.Results))
			return
		case <-deadline:
			t.Fatal("no idle state published")
		}
	}
}

func TestCoordinator_RoundTripWithStore(t *testing.T) {
	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(db))

	repo := storage.NewNoteRepo(db)
	c := newTestCoordinator(t)
	ctx := context.Background()

	id, err := repo.Add(ctx, &storage.NoteRecord{Title: "X", Body: "hello world", Tags: []string{"demo"}})
	require.NoError(t, err)

	all, err := repo.GetAll(ctx, true)
	require.NoError(t, err)
	got, err := c.Search(ctx, all, "hello", false, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids(got))

	require.NoError(t, repo.MoveToTrash(ctx, id))
	all, err = repo.GetAll(ctx, true)
	require.NoError(t, err)

	got, err = c.Search(ctx, all, "hello", false, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Search(ctx, all, "hello", true, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, storage.TrashPath, got[0].Path)
}

func TestWorker_Requests(t *testing.T) {
	w := NewWorker(0)
	w.Start()
	t.Cleanup(w.Stop)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		req     Request
		wantErr error
		wantIDs []int64
	}{
		{
			name:    "search",
			req:     Request{Type: RequestTypeSearch, ID: 1, Items: fixture(), Term: "milk"},
			wantIDs: []int64{2},
		},
		{
			name:    "unknown type",
			req:     Request{Type: "index", ID: 2, Items: fixture()},
			wantErr: ErrBadRequest,
		},
		{
			name:    "canceled before start",
			req:     Request{Type: RequestTypeSearch, ID: 3, Items: fixture(), Term: "milk"}.WithContext(canceled),
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w.Requests() <- tt.req
			resp := <-w.Responses()

			assert.Equal(t, ResponseTypeSearchResult, resp.Type)
			assert.Equal(t, tt.req.ID, resp.ID)
			assert.Equal(t, tt.req.Term, resp.Term)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(resp.Err, tt.wantErr), "err = %v, want %v", resp.Err, tt.wantErr)
				return
			}
			require.NoError(t, resp.Err)
			assert.Equal(t, tt.wantIDs, ids(resp.Results))
		})
	}
}
