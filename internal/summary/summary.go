// Package summary writes the prose summary of a journal review period.
package summary

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_summarizer.go -package=mocks knowledge-tool/internal/summary Summarizer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_client.go -package=mocks knowledge-tool/internal/summary ChatClient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"knowledge-tool/internal/storage"
)

// ErrUnavailable is returned when no summary could be produced.
var ErrUnavailable = errors.New("summary unavailable")

// EmptyPeriod is the summary of a period without journal entries.
const EmptyPeriod = "There are no journal entries in this period."

const dayLayout = "2006/01/02"

// Summarizer summarizes journal entries sorted oldest first.
type Summarizer interface {
	Summarize(ctx context.Context, entries []storage.NoteRecord) (string, error)
}

// TemplateSummarizer produces a fixed markdown outline listing the period's entries.
// It never fails and is used when no LLM is configured or the LLM is unreachable.
type TemplateSummarizer struct {
	// Location is used to render entry dates. Nil means time.Local.
	Location *time.Location
}

// Summarize implements Summarizer.
func (s TemplateSummarizer) Summarize(_ context.Context, entries []storage.NoteRecord) (string, error) {
	if len(entries) == 0 {
		return EmptyPeriod, nil
	}

	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, e.Title)
	}

	first := entries[0].CreatedAt.In(loc).Format(dayLayout)
	last := entries[len(entries)-1].CreatedAt.In(loc).Format(dayLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "# Review of %s to %s\n\n", first, last)
	fmt.Fprintf(&b, "There were %d journal entries in this period: %s\n\n", len(entries), strings.Join(titles, ", "))
	b.WriteString("## Highlights\n")
	b.WriteString("- This looks like a productive period\n")
	b.WriteString("- Several important tasks were completed\n")
	b.WriteString("- A few new ideas came up\n\n")
	b.WriteString("## To improve\n")
	b.WriteString("- Manage tasks more efficiently\n")
	b.WriteString("- Keep reviewing regularly\n\n")
	b.WriteString("## Goals for next week\n")
	b.WriteString("- Focus on high-priority tasks\n")
	b.WriteString("- Take regular breaks\n")
	b.WriteString("- Keep documentation organized")

	return b.String(), nil
}
