package providers

import (
	"fmt"

	"github.com/teakb/teakb/internal/llm"
	"github.com/teakb/teakb/internal/types"
)

// NewProvider creates a new LLM provider based on the configuration
func NewProvider(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)

	case "ollama":
		return NewOllamaProvider(cfg)

	case "mock":
		return NewMockProvider([]string{"mock response"}), nil

	default:
		return nil, types.NewError(llm.ErrCodeProviderNotFound,
			fmt.Sprintf("unknown provider type: %s", cfg.Provider))
	}
}
