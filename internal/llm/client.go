// Package llm provides LLM provider clients and the order extraction
// collaborator built on them.
package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no LLM provider is configured.
var ErrNoProvider = errors.New("no LLM provider configured")

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64

	// JSONMode asks the provider for a single JSON object where supported.
	JSONMode bool
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey, model string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, model)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model)
	default:
		return NewAnthropicClient(apiKey, model)
	}
}

// FromKeys picks a provider from the configured keys. The preferred provider
// wins when its key is set; otherwise whichever key is present is used.
func FromKeys(preferred Provider, anthropicKey, openaiKey, model string) (Client, error) {
	switch {
	case preferred == ProviderOpenAI && openaiKey != "":
		return NewOpenAIClient(openaiKey, model)
	case anthropicKey != "":
		return NewAnthropicClient(anthropicKey, model)
	case openaiKey != "":
		return NewOpenAIClient(openaiKey, model)
	default:
		return nil, ErrNoProvider
	}
}
