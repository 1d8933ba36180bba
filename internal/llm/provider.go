// Package llm provides StructuredLLM implementations used by the
// connection-discovery L2 step and by optional temporal-pattern enhancement.
package llm

import (
	"fmt"

	"github.com/synapsehq/synapse/internal/domain"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// NewStructuredLLM constructs a domain.StructuredLLM for the given provider.
func NewStructuredLLM(provider, apiKey, model string) (domain.StructuredLLM, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai LLM provider")
		}
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIClient(apiKey, model), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic LLM provider")
		}
		if model == "" {
			model = "claude-3-5-haiku-20241022"
		}
		return NewAnthropicClient(apiKey, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, mock)", provider)
	}
}
