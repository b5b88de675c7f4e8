package llm

import (
	"fmt"

	"github.com/ideialab/maieutica/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// NewClient creates a chat client based on the provider name. The model
// identifier is per-agent configuration; empty selects the provider
// default. Returns an error if the provider is unknown or the API key is
// empty (except for mock).
func NewClient(provider, apiKey, model string) (domain.ChatClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey, model), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey, model), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, gemini, mock)", provider)
	}
}
