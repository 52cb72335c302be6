package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	GenerateJSON(ctx context.Context, req Request) (Response, error)
}

// Request is a single prompt sent to a provider.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response is the provider reply with the JSON payload already extracted.
type Response struct {
	Text  string
	JSON  json.RawMessage
	Model string
	Usage Usage
}

// Decode unmarshals the extracted payload into v.
func (r Response) Decode(v any) error {
	return decodeJSON(r.JSON, v)
}

// Usage reports token counts when the provider returns them.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Config holds configuration for LLM clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return "gemini-2.5-flash"
	}
}
