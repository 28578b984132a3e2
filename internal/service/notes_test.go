package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"knowledge-tool/internal/search"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
	storagemocks "knowledge-tool/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

type countingMetrics struct {
	mu       sync.Mutex
	ops      map[string]int
	failures int
	opened   int
	closed   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{ops: make(map[string]int)}
}

func (m *countingMetrics) NoteOperation(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
	if err != nil {
		m.failures++
	}
}

func (m *countingMetrics) SessionOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened++
}

func (m *countingMetrics) SessionClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
}

func strPtr(s string) *string { return &s }

func TestNoteService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       service.CreateNoteRequest
		mockSetup func(store *storagemocks.MockNoteStore)
		wantErr   bool
		checkErr  func(error) bool
		wantTags  []string
	}{
		{
			name: "successful create",
			req:  service.CreateNoteRequest{Title: "Go", Body: "channels", Tags: []string{" go ", "", "lang"}, Path: "/dev"},
			mockSetup: func(store *storagemocks.MockNoteStore) {
				store.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *storage.NoteRecord) (int64, error) {
					n.ID = 7
					return 7, nil
				})
			},
			wantTags: []string{"go", "lang"},
		},
		{
			name:      "empty title is allowed",
			req:       service.CreateNoteRequest{},
			mockSetup: func(store *storagemocks.MockNoteStore) { store.EXPECT().Add(gomock.Any(), gomock.Any()).Return(int64(1), nil) },
			wantTags:  []string{},
		},
		{
			name:      "trash path rejected",
			req:       service.CreateNoteRequest{Title: "x", Path: storage.TrashPath},
			mockSetup: func(store *storagemocks.MockNoteStore) {},
			wantErr:   true,
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "path"
			},
		},
		{
			name: "store error",
			req:  service.CreateNoteRequest{Title: "x"},
			mockSetup: func(store *storagemocks.MockNoteStore) {
				store.EXPECT().Add(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("disk full"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := storagemocks.NewMockNoteStore(ctrl)
			tt.mockSetup(store)

			svc := service.NewNoteService(store, service.Options{})
			got, err := svc.Create(testContext(), tt.req)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Create() expected error, got nil")
				}
				if tt.checkErr != nil && !tt.checkErr(err) {
					t.Errorf("Create() error = %v, unexpected type", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if len(got.Tags) != len(tt.wantTags) {
				t.Fatalf("Create() tags = %v, want %v", got.Tags, tt.wantTags)
			}
			for i := range got.Tags {
				if got.Tags[i] != tt.wantTags[i] {
					t.Errorf("Create() tags = %v, want %v", got.Tags, tt.wantTags)
				}
			}
		})
	}
}

func TestNoteService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	store.EXPECT().GetByID(gomock.Any(), int64(3)).Return(&storage.NoteRecord{ID: 3, Title: "three"}, nil)
	store.EXPECT().GetByID(gomock.Any(), int64(4)).Return(nil, storage.ErrNotFound)

	got, err := svc.Get(testContext(), 3)
	if err != nil || got.Title != "three" {
		t.Errorf("Get(3) = %v, %v", got, err)
	}

	if _, err := svc.Get(testContext(), 4); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get(4) error = %v, want ErrNotFound", err)
	}

	var validationErr *service.ValidationError
	if _, err := svc.Get(testContext(), 0); !errors.As(err, &validationErr) {
		t.Errorf("Get(0) error = %v, want ValidationError", err)
	}
}

func TestNoteService_Update(t *testing.T) {
	existing := func() *storage.NoteRecord {
		return &storage.NoteRecord{ID: 5, Title: "old", Body: "body", Tags: []string{"a"}, Path: "/p"}
	}

	t.Run("partial update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := storagemocks.NewMockNoteStore(ctrl)
		metrics := newCountingMetrics()
		svc := service.NewNoteService(store, service.Options{Metrics: metrics})

		store.EXPECT().GetByID(gomock.Any(), int64(5)).Return(existing(), nil)
		store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *storage.NoteRecord) error {
			if n.Title != "new" || n.Body != "body" || n.Path != "/q" {
				t.Errorf("Update() stored %+v", n)
			}
			return nil
		})

		got, err := svc.Update(testContext(), 5, service.UpdateNoteRequest{Title: strPtr("new"), Path: strPtr("/q")})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Title != "new" {
			t.Errorf("Update() title = %v, want new", got.Title)
		}
		if metrics.ops["update"] != 1 {
			t.Errorf("update operations = %d, want 1", metrics.ops["update"])
		}
	})

	t.Run("move to trash path rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := storagemocks.NewMockNoteStore(ctrl)
		svc := service.NewNoteService(store, service.Options{})

		store.EXPECT().GetByID(gomock.Any(), int64(5)).Return(existing(), nil)

		_, err := svc.Update(testContext(), 5, service.UpdateNoteRequest{Path: strPtr(storage.TrashPath)})
		var validationErr *service.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("Update() error = %v, want ValidationError", err)
		}
	})

	t.Run("moving a trashed note conflicts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := storagemocks.NewMockNoteStore(ctrl)
		svc := service.NewNoteService(store, service.Options{})

		original := "/projects"
		store.EXPECT().GetByID(gomock.Any(), int64(5)).
			Return(&storage.NoteRecord{ID: 5, Path: storage.TrashPath, OriginalPath: &original}, nil)

		_, err := svc.Update(testContext(), 5, service.UpdateNoteRequest{Path: strPtr("/ideas")})
		if !errors.Is(err, service.ErrConflict) {
			t.Errorf("Update() error = %v, want ErrConflict", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := storagemocks.NewMockNoteStore(ctrl)
		svc := service.NewNoteService(store, service.Options{})

		store.EXPECT().GetByID(gomock.Any(), int64(9)).Return(nil, storage.ErrNotFound)

		if _, err := svc.Update(testContext(), 9, service.UpdateNoteRequest{}); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestNoteService_TrashAndRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	original := "/work"
	gomock.InOrder(
		store.EXPECT().MoveToTrash(gomock.Any(), int64(2)).Return(nil),
		store.EXPECT().GetByID(gomock.Any(), int64(2)).Return(&storage.NoteRecord{ID: 2, Path: storage.TrashPath, OriginalPath: &original}, nil),
		store.EXPECT().RestoreFromTrash(gomock.Any(), int64(2)).Return(nil),
		store.EXPECT().GetByID(gomock.Any(), int64(2)).Return(&storage.NoteRecord{ID: 2, Path: original}, nil),
	)

	trashed, err := svc.Trash(testContext(), 2)
	if err != nil {
		t.Fatalf("Trash() error = %v", err)
	}
	if !trashed.InTrash() {
		t.Errorf("Trash() path = %v, want %v", trashed.Path, storage.TrashPath)
	}

	restored, err := svc.Restore(testContext(), 2)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Path != original || restored.OriginalPath != nil {
		t.Errorf("Restore() = %+v, want path %v", restored, original)
	}
}

func TestNoteService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	store.EXPECT().GetByID(gomock.Any(), int64(4)).Return(&storage.NoteRecord{ID: 4}, nil)
	store.EXPECT().Delete(gomock.Any(), int64(4)).Return(nil)
	store.EXPECT().Delete(gomock.Any(), int64(4)).Return(storage.ErrNotFound)

	if _, err := svc.Select(testContext(), 4); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if err := svc.Delete(testContext(), 4); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if sel := svc.Selection(); sel.Selected != nil {
		t.Errorf("Selection().Selected = %v after delete, want nil", *sel.Selected)
	}

	if err := svc.Delete(testContext(), 4); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestNoteService_EmptyTrash(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	store.EXPECT().GetByID(gomock.Any(), int64(8)).Return(&storage.NoteRecord{ID: 8, Path: storage.TrashPath}, nil)
	store.EXPECT().EmptyTrash(gomock.Any()).Return(int64(2), nil)
	store.EXPECT().GetByID(gomock.Any(), int64(8)).Return(nil, storage.ErrNotFound)

	if _, err := svc.Select(testContext(), 8); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	removed, err := svc.EmptyTrash(testContext())
	if err != nil {
		t.Fatalf("EmptyTrash() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("EmptyTrash() = %d, want 2", removed)
	}
	if sel := svc.Selection(); sel.Selected != nil {
		t.Errorf("Selection().Selected = %v, want nil", *sel.Selected)
	}
}

func TestNoteService_ListAndTags(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	store.EXPECT().GetAll(gomock.Any(), true).Return([]storage.NoteRecord{{ID: 1}, {ID: 2}}, nil)
	store.EXPECT().GetByPath(gomock.Any(), storage.TrashPath).Return([]storage.NoteRecord{{ID: 2}}, nil)
	store.EXPECT().ListTags(gomock.Any()).Return([]storage.TagCount{{Tag: "go", Count: 2}}, nil)
	store.EXPECT().MarkRead(gomock.Any(), int64(1), true).Return(nil)

	all, err := svc.List(testContext(), true)
	if err != nil || len(all) != 2 {
		t.Errorf("List() = %v, %v", all, err)
	}

	trash, err := svc.ListByPath(testContext(), storage.TrashPath)
	if err != nil || len(trash) != 1 {
		t.Errorf("ListByPath() = %v, %v", trash, err)
	}

	if _, err := svc.ListByPath(testContext(), "  "); err == nil {
		t.Error("ListByPath(blank) expected error")
	}

	tags, err := svc.Tags(testContext())
	if err != nil || len(tags) != 1 || tags[0].Tag != "go" {
		t.Errorf("Tags() = %v, %v", tags, err)
	}

	if err := svc.MarkRead(testContext(), 1, true); err != nil {
		t.Errorf("MarkRead() error = %v", err)
	}
}

func TestNoteService_Selection(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	store.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&storage.NoteRecord{ID: 1}, nil)
	store.EXPECT().GetByID(gomock.Any(), int64(99)).Return(nil, storage.ErrNotFound)

	if sel := svc.Selection(); sel.Selected != nil || sel.Creating {
		t.Errorf("initial Selection() = %+v, want empty", sel)
	}

	sel, err := svc.Select(testContext(), 1)
	if err != nil || sel.Selected == nil || *sel.Selected != 1 {
		t.Fatalf("Select(1) = %+v, %v", sel, err)
	}

	if _, err := svc.Select(testContext(), 99); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Select(99) error = %v, want ErrNotFound", err)
	}
	if sel := svc.Selection(); sel.Selected == nil || *sel.Selected != 1 {
		t.Errorf("failed Select() changed selection to %+v", sel)
	}

	sel = svc.BeginDraft(storage.NoteRecord{ID: 42, Title: "draft", Tags: []string{"x"}})
	if !sel.Creating || sel.Selected != nil || sel.Draft == nil || sel.Draft.ID != 0 {
		t.Errorf("BeginDraft() = %+v", sel)
	}

	// Callers get copies
	sel.Draft.Tags[0] = "mutated"
	if got := svc.Selection(); got.Draft.Tags[0] != "x" {
		t.Errorf("Selection() draft tags = %v, want [x]", got.Draft.Tags)
	}

	if sel := svc.ClearSelection(); sel.Creating || sel.Draft != nil || sel.Selected != nil {
		t.Errorf("ClearSelection() = %+v, want empty", sel)
	}
}

func TestNoteService_Search(t *testing.T) {
	items := []storage.NoteRecord{
		{ID: 1, Title: "Go notes", Tags: []string{"go"}, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "Rust notes", Tags: []string{"rust"}, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: 3, Title: "golang tips", Tags: []string{"go"}, CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}

	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	store.EXPECT().GetAll(gomock.Any(), false).Return(items, nil).AnyTimes()

	coord, err := search.NewCoordinator()
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	svc := service.NewNoteService(store, service.Options{Coordinator: coord})
	defer func() { _ = svc.Close() }()

	tests := []struct {
		name    string
		req     service.SearchRequest
		wantIDs []int64
	}{
		{name: "text", req: service.SearchRequest{Term: "notes"}, wantIDs: []int64{2, 1}},
		{name: "tag prefix", req: service.SearchRequest{Term: "#go"}, wantIDs: []int64{3, 1}},
		{name: "exact tag", req: service.SearchRequest{Tag: "rust"}, wantIDs: []int64{2}},
		{
			name:    "date range",
			req:     service.SearchRequest{From: timePtr(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), To: timePtr(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))},
			wantIDs: []int64{3, 2},
		},
		{name: "no match", req: service.SearchRequest{Term: "python"}, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(testContext(), tt.req)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got.Results == nil {
				t.Fatal("Search() results should never be nil")
			}
			if len(got.Results) != len(tt.wantIDs) {
				t.Fatalf("Search() returned %d results, want %d", len(got.Results), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Results[i].ID != id {
					t.Errorf("Search() result[%d] = %d, want %d", i, got.Results[i].ID, id)
				}
			}
			if got.Term != tt.req.Term || got.Superseded {
				t.Errorf("Search() term = %q superseded = %v", got.Term, got.Superseded)
			}
		})
	}

	status := svc.SearchStatus()
	if !status.Available || status.Searching || status.Term != "python" {
		t.Errorf("SearchStatus() = %+v", status)
	}
}

func TestNoteService_SearchValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	var validationErr *service.ValidationError
	if _, err := svc.Search(testContext(), service.SearchRequest{From: &from, To: &to}); !errors.As(err, &validationErr) {
		t.Errorf("Search(from > to) error = %v, want ValidationError", err)
	}

	// The range runs to the end of the to day
	laterFrom := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Search(testContext(), service.SearchRequest{From: &laterFrom, To: &sameDay}); !errors.Is(err, service.ErrSearchUnavailable) {
		t.Errorf("Search(from within to day) error = %v, want ErrSearchUnavailable", err)
	}

	if _, err := svc.Search(testContext(), service.SearchRequest{Term: "x"}); !errors.Is(err, service.ErrSearchUnavailable) {
		t.Errorf("Search() without coordinator error = %v, want ErrSearchUnavailable", err)
	}

	if status := svc.SearchStatus(); status.Available {
		t.Errorf("SearchStatus() = %+v, want unavailable", status)
	}
}

func TestNoteService_WatchSearch(t *testing.T) {
	items := []storage.NoteRecord{
		{ID: 1, Title: "Go notes", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	store.EXPECT().GetAll(gomock.Any(), false).Return(items, nil)

	coord, err := search.NewCoordinator()
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	svc := service.NewNoteService(store, service.Options{Coordinator: coord})
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(testContext())
	statuses, err := svc.WatchSearch(ctx)
	if err != nil {
		t.Fatalf("WatchSearch() error = %v", err)
	}

	if first := <-statuses; !first.Available || first.Searching || first.Generation != 0 {
		t.Errorf("WatchSearch() initial status = %+v", first)
	}

	if _, err := svc.Search(testContext(), service.SearchRequest{Term: "go"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	deadline := time.After(time.Second)
	for committed := false; !committed; {
		select {
		case st := <-statuses:
			committed = !st.Searching && st.Generation == 1 && st.Term == "go"
		case <-deadline:
			t.Fatal("WatchSearch() never reported the committed search")
		}
	}

	cancel()
	for range statuses {
	}

	noCoord := service.NewNoteService(store, service.Options{})
	if _, err := noCoord.WatchSearch(testContext()); !errors.Is(err, service.ErrSearchUnavailable) {
		t.Errorf("WatchSearch() without coordinator error = %v, want ErrSearchUnavailable", err)
	}
}

func TestNoteService_SearchAfterCoordinatorClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	store.EXPECT().GetAll(gomock.Any(), false).Return(nil, nil)

	coord, err := search.NewCoordinator()
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	_ = coord.Close()

	svc := service.NewNoteService(store, service.Options{Coordinator: coord})
	if _, err := svc.Search(testContext(), service.SearchRequest{Term: "x"}); !errors.Is(err, service.ErrSearchUnavailable) {
		t.Errorf("Search() error = %v, want ErrSearchUnavailable", err)
	}
}

func TestNoteService_Sessions(t *testing.T) {
	items := []storage.NoteRecord{
		{ID: 1, Title: "alpha", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "beta", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	store.EXPECT().GetAll(gomock.Any(), false).Return(items, nil).AnyTimes()

	metrics := newCountingMetrics()
	svc := service.NewNoteService(store, service.Options{
		NewCoordinator: func() (*search.Coordinator, error) { return search.NewCoordinator() },
		Debounce:       10 * time.Millisecond,
		Metrics:        metrics,
	})
	defer func() { _ = svc.Close() }()

	sess, err := svc.NewSession(testContext())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	found, err := svc.Session(sess.ID())
	if err != nil || found != sess {
		t.Fatalf("Session(%q) = %v, %v", sess.ID(), found, err)
	}

	if err := sess.Input(search.Criteria{Term: "alp"}); err != nil {
		t.Fatalf("Input() error = %v", err)
	}

	select {
	case u := <-sess.Updates():
		if u.Error != "" || len(u.Results) != 1 || u.Results[0].ID != 1 {
			t.Errorf("update = %+v, want result [1]", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
	}

	if err := svc.CloseSession(testContext(), sess.ID()); err != nil {
		t.Fatalf("CloseSession() error = %v", err)
	}
	if _, err := svc.Session(sess.ID()); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Session() after close error = %v, want ErrNotFound", err)
	}
	if err := svc.CloseSession(testContext(), sess.ID()); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("second CloseSession() error = %v, want ErrNotFound", err)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.opened != 1 || metrics.closed != 1 {
		t.Errorf("sessions opened/closed = %d/%d, want 1/1", metrics.opened, metrics.closed)
	}
}

func TestNoteService_SessionsDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storagemocks.NewMockNoteStore(ctrl)
	svc := service.NewNoteService(store, service.Options{})

	if _, err := svc.NewSession(testContext()); !errors.Is(err, service.ErrSearchUnavailable) {
		t.Errorf("NewSession() error = %v, want ErrSearchUnavailable", err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
