package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/llm"
	"knowledge-tool/internal/storage"

	"github.com/sony/gobreaker"
)

const systemPrompt = `You review personal journal entries. Write a short markdown summary with the sections
"Highlights", "To improve" and "Goals for next week". Use only what the entries say.`

// maxEntryChars caps how much of each entry body is sent to the model.
const maxEntryChars = 2000

// ChatClient is the part of the LLM client the summarizer needs.
type ChatClient interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.ChatParams) (*llm.Completion, error)
}

// BreakerConfig configures the circuit breaker around the LLM.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that opens the breaker once MinRequests were made.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used by the server.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "llm-summary",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// LLMSummarizer asks a chat completions model for the summary. Calls go through a circuit
// breaker; when the call fails and a fallback is set, the fallback's summary is returned.
type LLMSummarizer struct {
	client   ChatClient
	breaker  *gobreaker.CircuitBreaker
	fallback Summarizer
	params   llm.ChatParams
}

// NewLLMSummarizer creates a summarizer. fallback may be nil.
func NewLLMSummarizer(client ChatClient, cfg BreakerConfig, fallback Summarizer) *LLMSummarizer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			// Rejected requests say nothing about the health of the server
			var statusErr *llm.StatusError
			if errors.As(err, &statusErr) && !statusErr.Temporary() {
				return true
			}
			return false
		},
	})

	return &LLMSummarizer{
		client:   client,
		breaker:  breaker,
		fallback: fallback,
		params:   llm.ChatParams{MaxTokens: 512, Temperature: 0.3},
	}
}

// State reports the breaker state, for health checks.
func (s *LLMSummarizer) State() gobreaker.State {
	return s.breaker.State()
}

// Summarize implements Summarizer.
func (s *LLMSummarizer) Summarize(ctx context.Context, entries []storage.NoteRecord) (string, error) {
	if len(entries) == 0 {
		return EmptyPeriod, nil
	}

	logger := contextutil.LoggerFromContext(ctx)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildPrompt(entries)},
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.Complete(ctx, messages, s.params)
	})
	if err == nil {
		completion, _ := out.(*llm.Completion)
		if completion != nil && strings.TrimSpace(completion.Content) != "" {
			logger.DebugContext(ctx, "journal summarized", "entries", len(entries),
				"tokens", completion.Usage.TotalTokens, "truncated", completion.Truncated())
			return completion.Content, nil
		}
		err = errors.New("empty reply from model")
	}

	if s.fallback == nil {
		logger.ErrorContext(ctx, "failed to summarize journal", "error", err, "breaker", s.breaker.State().String())
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.WarnContext(ctx, "LLM summary failed, using fallback", "error", err, "breaker", s.breaker.State().String())
	return s.fallback.Summarize(ctx, entries)
}

func buildPrompt(entries []storage.NoteRecord) string {
	var b strings.Builder
	b.WriteString("Journal entries, oldest first:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n## %s (%s)\n%s\n", e.Title, e.CreatedAt.Format(time.DateOnly), truncate(e.Body, maxEntryChars))
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune, marking the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
