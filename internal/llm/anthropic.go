package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/synapsehq/synapse/internal/domain"
)

const anthropicDefaultMaxTokens int64 = 1024

// AnthropicClient implements domain.StructuredLLM as the second
// StructuredLLM provider, for deployments that prefer Claude over GPT for
// connection classification and temporal-pattern summaries.
type AnthropicClient struct {
	sdk   anthropic.Client
	model string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		sdk:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

func (c *AnthropicClient) GenerateObject(ctx context.Context, schema domain.ResponseSchema, messages []domain.Message, temperature float64) (map[string]any, *domain.LLMUsage, error) {
	var system []anthropic.TextBlockParam
	var converted []anthropic.MessageParam
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
			continue
		}
		if m.Role == "assistant" {
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	system = append(system, anthropic.TextBlockParam{Text: schemaInstruction(schema)})

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		Messages:  converted,
		System:    system,
		MaxTokens: anthropicDefaultMaxTokens,
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(text.String())), &obj); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON response: %v", domain.ErrLLMFailure, err)
	}
	if err := validateAgainstSchema(schema, obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	usage := &domain.LLMUsage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	return obj, usage, nil
}

// extractJSONObject strips leading/trailing prose or markdown fences Claude
// sometimes wraps JSON in despite instructions, by slicing to the outermost
// brace pair.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
