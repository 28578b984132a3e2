package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/storage"
)

// JournalTag is attached to every journal entry created by TodayJournal.
const JournalTag = "journal"

// reviewDays is the length of the default review period.
const reviewDays = 7

// ReviewRequest selects the days of a review. Both ends are inclusive and compared by
// calendar day. Without From the period ends at To (or today) and spans a week; without
// To the period is the single day From.
type ReviewRequest struct {
	From *time.Time
	To   *time.Time
}

// Review is the result of WeeklyReview.
type Review struct {
	From    time.Time            `json:"from"`
	To      time.Time            `json:"to"`
	Entries []storage.NoteRecord `json:"entries"`
	Summary string               `json:"summary"`
	// SummaryError is set when the summarizer failed; Entries are still valid.
	SummaryError string `json:"summaryError,omitempty"`
}

// JournalPath returns the path of the journal entry for t's date.
func JournalPath(t time.Time) string {
	return storage.JournalPathPrefix + t.Format(time.DateOnly)
}

// TodayJournal returns the journal entry for now's date, creating it if needed.
func (s *noteService) TodayJournal(ctx context.Context, now time.Time) (*storage.NoteRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)
	path := JournalPath(now)

	existing, err := s.store.GetByPath(ctx, path)
	if err != nil {
		logger.ErrorContext(ctx, "failed to look up journal entry", "path", path, "error", err)
		return nil, WrapError(err, "failed to look up journal entry")
	}
	if len(existing) > 0 {
		// Oldest entry wins if a path was ever duplicated
		entry := existing[len(existing)-1]
		return &entry, nil
	}

	entry := &storage.NoteRecord{
		Title: now.Format("2006/01/02"),
		Tags:  []string{JournalTag},
		Path:  path,
	}
	_, err = s.store.Add(ctx, entry)
	s.metrics.NoteOperation("create", err)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create journal entry", "path", path, "error", err)
		return nil, WrapError(err, "failed to create journal entry")
	}

	logger.InfoContext(ctx, "journal entry created", "note_id", entry.ID, "path", path)
	return entry, nil
}

// WeeklyReview collects the journal entries created within the requested days, oldest
// first, and summarizes them.
func (s *noteService) WeeklyReview(ctx context.Context, req ReviewRequest) (Review, error) {
	logger := contextutil.LoggerFromContext(ctx)

	from, to := reviewPeriod(req, s.now())
	if from.After(to) {
		return Review{}, invalidField("from", "must not be after to")
	}

	notes, err := s.store.GetAll(ctx, false)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load notes for review", "error", err)
		return Review{}, WrapError(err, "failed to load notes for review")
	}

	entries := make([]storage.NoteRecord, 0)
	for _, n := range notes {
		if !n.IsJournal() {
			continue
		}
		day := startOfDay(n.CreatedAt.In(from.Location()))
		if day.Before(from) || day.After(to) {
			continue
		}
		entries = append(entries, n)
	}
	slices.SortStableFunc(entries, func(a, b storage.NoteRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	review := Review{From: from, To: to, Entries: entries}

	text, err := s.summarizer.Summarize(ctx, entries)
	if err != nil {
		logger.WarnContext(ctx, "failed to summarize review", "entries", len(entries), "error", err)
		review.SummaryError = err.Error()
	} else {
		review.Summary = text
	}

	logger.InfoContext(ctx, "weekly review built", "from", from.Format(time.DateOnly), "to", to.Format(time.DateOnly), "entries", len(entries))
	return review, nil
}

// reviewPeriod resolves the request to the first and last day, both at midnight.
func reviewPeriod(req ReviewRequest, now time.Time) (time.Time, time.Time) {
	switch {
	case req.From != nil && req.To != nil:
		return startOfDay(*req.From), startOfDay(req.To.In(req.From.Location()))
	case req.From != nil:
		from := startOfDay(*req.From)
		return from, from
	case req.To != nil:
		to := startOfDay(*req.To)
		return to.AddDate(0, 0, -reviewDays), to
	default:
		today := startOfDay(now)
		return today.AddDate(0, 0, -reviewDays), today
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
