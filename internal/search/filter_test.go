package search

import (
	"testing"
	"time"

	"knowledge-tool/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func fixture() []storage.NoteRecord {
	return []storage.NoteRecord{
		{ID: 1, Title: "Go notes", Body: "goroutines and channels", CreatedAt: day(2024, 3, 1, 9), Tags: []string{"Golang", "dev"}},
		{ID: 2, Title: "Groceries", Body: "milk, eggs", CreatedAt: day(2024, 3, 2, 18), Tags: []string{"home"}},
		{ID: 3, Title: "Old idea", Body: "hello world", CreatedAt: day(2024, 2, 20, 7), Tags: []string{"ideas"}},
		{ID: 4, Title: "Trashed golang", Body: "hello trash", CreatedAt: day(2024, 3, 3, 12), Tags: []string{"golang"},
			Path: storage.TrashPath, OriginalPath: ptr("")},
		{ID: 5, Title: "Journal", Body: "#dev today", CreatedAt: day(2024, 3, 2, 8), Tags: []string{"journal"}, Path: "/journal/2024-03-02"},
	}
}

func ids(notes []storage.NoteRecord) []int64 {
	out := make([]int64, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{
			name:     "empty criteria excludes trash and sorts newest first",
			criteria: Criteria{},
			want:     []int64{2, 5, 1, 3},
		},
		{
			name:     "include trash",
			criteria: Criteria{IncludeTrash: true},
			want:     []int64{4, 2, 5, 1, 3},
		},
		{
			name:     "whitespace term disables text filter",
			criteria: Criteria{Term: "   "},
			want:     []int64{2, 5, 1, 3},
		},
		{
			name:     "substring in body is case-insensitive",
			criteria: Criteria{Term: "HELLO"},
			want:     []int64{3},
		},
		{
			name:     "substring in title",
			criteria: Criteria{Term: "groc"},
			want:     []int64{2},
		},
		{
			name:     "term with trash",
			criteria: Criteria{Term: "hello", IncludeTrash: true},
			want:     []int64{4, 3},
		},
		{
			name:     "tag prefix matches tags case-insensitively",
			criteria: Criteria{Term: "#golang"},
			want:     []int64{1},
		},
		{
			name:     "tag prefix matches partial tag",
			criteria: Criteria{Term: "#DE"},
			want:     []int64{1, 3},
		},
		{
			name:     "tag prefix ignores body text",
			criteria: Criteria{Term: "#today"},
			want:     []int64{},
		},
		{
			name:     "bare hash falls back to title and body",
			criteria: Criteria{Term: "#"},
			want:     []int64{5},
		},
		{
			name:     "exact tag without term",
			criteria: Criteria{Tag: "golang"},
			want:     []int64{},
		},
		{
			name:     "exact tag is case-sensitive",
			criteria: Criteria{Tag: "Golang"},
			want:     []int64{1},
		},
		{
			name:     "term wins over tag",
			criteria: Criteria{Term: "milk", Tag: "Golang"},
			want:     []int64{2},
		},
		{
			name:     "from only",
			criteria: Criteria{DateRange: &DateRange{From: ptr(day(2024, 3, 2, 0))}},
			want:     []int64{2, 5},
		},
		{
			name:     "to only includes the whole day",
			criteria: Criteria{DateRange: &DateRange{To: ptr(day(2024, 3, 1, 0))}},
			want:     []int64{1, 3},
		},
		{
			name: "from and to inclusive",
			criteria: Criteria{DateRange: &DateRange{
				From: ptr(day(2024, 3, 1, 9)),
				To:   ptr(day(2024, 3, 2, 0)),
			}},
			want: []int64{2, 5, 1},
		},
		{
			name:     "empty date range is ignored",
			criteria: Criteria{DateRange: &DateRange{}},
			want:     []int64{2, 5, 1, 3},
		},
		{
			name: "date range combined with term",
			criteria: Criteria{
				Term:      "o",
				DateRange: &DateRange{From: ptr(day(2024, 3, 1, 0)), To: ptr(day(2024, 3, 1, 0))},
			},
			want: []int64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(fixture(), tt.criteria)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	items := fixture()
	before := fixture()

	got := Filter(items, Criteria{Term: "#golang", IncludeTrash: true})
	require.NotEmpty(t, got)
	got[0].Tags[0] = "changed"
	got[0].Title = "changed"

	assert.Equal(t, before, items)
}

func TestFilter_TrashExclusivity(t *testing.T) {
	for _, term := range []string{"", "hello", "#golang", "#", "trash"} {
		for _, n := range Filter(fixture(), Criteria{Term: term}) {
			assert.NotEqual(t, storage.TrashPath, n.Path, "term %q returned a trashed note", term)
		}
	}
}

func TestFilter_DateRangeInclusivity(t *testing.T) {
	from := day(2024, 3, 1, 12)
	to := day(2024, 3, 2, 0)

	items := []storage.NoteRecord{
		{ID: 1, CreatedAt: from.Add(-time.Millisecond)},
		{ID: 2, CreatedAt: from},
		{ID: 3, CreatedAt: EndOfDay(to)},
		{ID: 4, CreatedAt: EndOfDay(to).Add(time.Millisecond)},
		{ID: 5},
	}

	got := Filter(items, Criteria{DateRange: &DateRange{From: &from, To: &to}})
	assert.Equal(t, []int64{3, 2}, ids(got))

	for _, n := range got {
		assert.False(t, n.CreatedAt.Before(from))
		assert.False(t, n.CreatedAt.After(EndOfDay(to)))
	}
}

func TestFilter_StableOrderForEqualTimestamps(t *testing.T) {
	at := day(2024, 1, 1, 0)
	items := []storage.NoteRecord{
		{ID: 7, CreatedAt: at},
		{ID: 9, CreatedAt: at},
		{ID: 8, CreatedAt: at},
	}

	assert.Equal(t, []int64{9, 8, 7}, ids(Filter(items, Criteria{})))
}

func TestEndOfDay(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	in := time.Date(2024, 3, 2, 4, 30, 0, 0, loc)

	got := EndOfDay(in)

	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999000000, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want []Segment
	}{
		{
			name: "empty text",
			text: "",
			term: "x",
			want: nil,
		},
		{
			name: "empty term",
			text: "hello",
			term: "",
			want: []Segment{{Text: "hello"}},
		},
		{
			name: "no match",
			text: "hello",
			term: "xyz",
			want: []Segment{{Text: "hello"}},
		},
		{
			name: "case-insensitive matches keep original case",
			text: "Hello hello",
			term: "HELLO",
			want: []Segment{
				{Text: "Hello", Match: true},
				{Text: " "},
				{Text: "hello", Match: true},
			},
		},
		{
			name: "match in the middle",
			text: "say hi there",
			term: "hi",
			want: []Segment{
				{Text: "say "},
				{Text: "hi", Match: true},
				{Text: " there"},
			},
		},
		{
			name: "regexp metacharacters are literal",
			text: "a+b=c",
			term: "+b",
			want: []Segment{
				{Text: "a"},
				{Text: "+b", Match: true},
				{Text: "=c"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Highlight(tt.text, tt.term))
		})
	}
}
