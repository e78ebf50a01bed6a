package llm

import "context"

// Client is the interface to the AI completion provider. The model is chosen
// per request because plan gating may swap in a fallback model mid-window.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Complete(ctx context.Context, model, prompt string, systemPrompt ...string) (string, error)
	StreamChat(ctx context.Context, req ChatRequest) (<-chan string, <-chan error)
}

// ChatMessage represents a chat message
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	JSONMode    bool          `json:"json_mode,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	Message      string `json:"message"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason"`
}

// Ensure implementations satisfy the interface
var _ Client = (*OpenRouterClient)(nil)
