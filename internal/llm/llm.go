package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the boundary abstraction over a hosted generative-language
// completion service. A single prompt in, the raw text completion out;
// errors propagate unwrapped to the caller, with no retry or backoff.
type Provider interface {
	// Complete sends a free-text prompt and returns the raw text reply.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Config holds provider selection and connection settings.
type Config struct {
	// Provider selects the backend: "gemini" or "openai".
	Provider string
	// BaseURL overrides the API endpoint (OpenAI-compatible servers only).
	BaseURL string
	APIKey  string
	Model   string
}

// New creates a Provider from config.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "gemini":
		return NewGeminiProvider(ctx, cfg)
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
