package llm

import (
	"context"

	"github.com/synapsehq/synapse/internal/domain"
)

// MockClient is a configurable StructuredLLM for tests. Set Response/Err to
// control what GenerateObject returns; Calls records every invocation.
type MockClient struct {
	Response map[string]any
	Usage    *domain.LLMUsage
	Err      error
	Calls    []domain.ResponseSchema
}

func NewMockClient() *MockClient {
	return &MockClient{
		Response: map[string]any{
			"connectionType": string(domain.ConnectionRelated),
			"confidence":     0.5,
			"reason":         "mock classification",
		},
		Usage: &domain.LLMUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func (c *MockClient) GenerateObject(ctx context.Context, schema domain.ResponseSchema, messages []domain.Message, temperature float64) (map[string]any, *domain.LLMUsage, error) {
	c.Calls = append(c.Calls, schema)
	if c.Err != nil {
		return nil, nil, c.Err
	}
	return c.Response, c.Usage, nil
}

// Reset clears recorded calls.
func (c *MockClient) Reset() {
	c.Calls = nil
}
