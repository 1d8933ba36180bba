// Package embedding provides the Embedder capability implementations and
// the caching/coalescing service the rest of the engine calls through.
package embedding

import (
	"fmt"

	"github.com/synapsehq/synapse/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewEmbedder constructs a domain.Embedder for the given provider name.
func NewEmbedder(provider, apiKey, model string) (domain.Embedder, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		if model == "" {
			model = "text-embedding-3-small"
		}
		return NewOpenAIEmbedder(apiKey, model), nil

	case ProviderMock:
		return NewMockEmbedder(), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (valid options: openai, mock)", provider)
	}
}
