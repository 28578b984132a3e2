// Package search filters note snapshots and runs those filters on a background worker
// with latest-wins resolution and input debouncing.
package search

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"knowledge-tool/internal/storage"
)

// DateRange restricts results by creation time. Either bound may be nil.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Active reports whether the range constrains anything.
func (r *DateRange) Active() bool {
	return r != nil && (r.From != nil || r.To != nil)
}

// Contains reports whether t lies in [From, EndOfDay(To)].
// A zero timestamp never matches an active range.
func (r *DateRange) Contains(t time.Time) bool {
	if !r.Active() {
		return true
	}
	if t.IsZero() {
		return false
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(EndOfDay(*r.To)) {
		return false
	}
	return true
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Criteria selects notes from a snapshot.
type Criteria struct {
	// Term is a case-insensitive substring of title or body. A leading '#' searches tags instead.
	Term string `json:"term"`
	// IncludeTrash keeps trashed notes in the result.
	IncludeTrash bool `json:"includeTrash"`
	// DateRange bounds CreatedAt. Nil means unbounded.
	DateRange *DateRange `json:"dateRange,omitempty"`
	// Tag is an exact tag filter, applied only when Term is blank.
	Tag string `json:"tag,omitempty"`
}

// Filter returns the notes of items matching c, newest first.
// It never modifies items; the returned records are copies.
func Filter(items []storage.NoteRecord, c Criteria) []storage.NoteRecord {
	match := matcher(c)

	out := make([]storage.NoteRecord, 0, len(items))
	for i := range items {
		if match(&items[i]) {
			out = append(out, items[i].Clone())
		}
	}

	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders notes by CreatedAt descending, then by ID descending.
func SortNewestFirst(notes []storage.NoteRecord) {
	slices.SortStableFunc(notes, func(a, b storage.NoteRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

func matcher(c Criteria) func(*storage.NoteRecord) bool {
	text := textMatcher(c.Term, c.Tag)

	return func(n *storage.NoteRecord) bool {
		if !c.IncludeTrash && n.InTrash() {
			return false
		}
		if !c.DateRange.Contains(n.CreatedAt) {
			return false
		}
		return text(n)
	}
}

func textMatcher(term, tag string) func(*storage.NoteRecord) bool {
	blank := strings.TrimSpace(term) == ""

	switch {
	case blank && tag != "":
		return func(n *storage.NoteRecord) bool {
			return n.HasTag(tag)
		}
	case blank:
		return func(*storage.NoteRecord) bool { return true }
	}

	if rest, ok := strings.CutPrefix(term, "#"); ok && strings.TrimSpace(rest) != "" {
		needle := strings.ToLower(rest)
		return func(n *storage.NoteRecord) bool {
			for _, t := range n.Tags {
				if strings.Contains(strings.ToLower(t), needle) {
					return true
				}
			}
			return false
		}
	}

	// The term is matched as typed; a bare "#" is searched for literally in title and body
	needle := strings.ToLower(term)
	return func(n *storage.NoteRecord) bool {
		return strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Body), needle)
	}
}
