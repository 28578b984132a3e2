package app

import (
	"context"
	"fmt"
	"time"

	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

type demoNote struct {
	daysAgo int
	note    storage.NoteRecord
}

func demoNotes(now time.Time) []demoNote {
	journal := func(daysAgo int, body string) demoNote {
		day := now.AddDate(0, 0, -daysAgo)
		return demoNote{daysAgo: daysAgo, note: storage.NoteRecord{
			Title: day.Format("2006/01/02"),
			Body:  body,
			Tags:  []string{service.JournalTag},
			Path:  service.JournalPath(day),
		}}
	}

	return []demoNote{
		{daysAgo: 9, note: storage.NoteRecord{
			Title: "Go concurrency patterns",
			Body:  "Use `context.Context` for cancellation.\n\n- fan out with errgroup\n- latest request wins",
			Tags:  []string{"go", "dev"},
			Path:  "/dev",
		}},
		{daysAgo: 6, note: storage.NoteRecord{
			Title: "SQLite notes",
			Body:  "WAL mode allows readers during a write. Keep one writer connection.",
			Tags:  []string{"sqlite", "dev"},
			Path:  "/dev",
		}},
		{daysAgo: 5, note: storage.NoteRecord{
			Title: "Reading list",
			Body:  "1. The Go Programming Language\n2. Designing Data-Intensive Applications",
			Tags:  []string{"study"},
			Path:  "/study",
		}},
		{daysAgo: 2, note: storage.NoteRecord{
			Title: "Idea: weekly review export",
			Body:  "Export the weekly review as markdown so it can be shared.",
			Tags:  []string{"idea"},
			Path:  "/ideas",
		}},
		journal(3, "Set up the note store and wrote the first tests."),
		journal(1, "Debounced search works. Stale results are dropped."),
	}
}

// Seed adds a small set of demo notes when the store is empty, dated relative to now.
// It returns how many notes were added.
func Seed(ctx context.Context, repo *storage.NoteRepo, now time.Time) (int, error) {
	existing, err := repo.GetAll(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing notes: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	notes := demoNotes(now)
	for i := range notes {
		created := now.AddDate(0, 0, -notes[i].daysAgo)
		stamped := repo.WithClock(func() time.Time { return created })
		if _, err := stamped.Add(ctx, &notes[i].note); err != nil {
			return i, fmt.Errorf("failed to seed note %q: %w", notes[i].note.Title, err)
		}
	}
	return len(notes), nil
}
