package llm

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams tunes a single completion. Zero values leave the server defaults in place.
type ChatParams struct {
	// Model overrides the client's model.
	Model       string
	MaxTokens   int
	Temperature float32
}

// Usage reports the tokens a completion consumed.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the first choice of a chat completions response.
type Completion struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Truncated reports whether the model stopped because it hit the token limit.
func (c *Completion) Truncated() bool {
	return c.FinishReason == "length"
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}
