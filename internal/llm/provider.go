package llm

import (
	"context"

	"github.com/teakb/teakb/internal/types"
)

// Provider defines the interface that all LLM providers must implement.
// It provides a unified abstraction over different chat-completion services
// (OpenAI-compatible APIs, local Ollama models, etc.). Providers are
// stateless per call and safe for concurrent use.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "ollama")
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and streams the response as it's
	// generated. The returned channel emits StreamChunk items until
	// completion or error and is closed when streaming is done.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// Health checks the health status of the provider and its connectivity
	Health(ctx context.Context) types.HealthStatus
}

// ProviderConfig holds the settings needed to construct a provider.
type ProviderConfig struct {
	// Provider selects the backend: "openai" or "ollama".
	Provider string

	// APIKey authenticates against the backend. Falls back to the
	// provider-specific environment variable when empty.
	APIKey string

	// BaseURL overrides the backend endpoint, e.g. for OpenAI-compatible
	// gateways.
	BaseURL string

	// Model is the default model identifier.
	Model string
}
