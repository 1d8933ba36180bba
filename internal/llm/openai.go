package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/synapsehq/synapse/internal/domain"
)

// OpenAIClient implements domain.StructuredLLM on top of go-openai's chat
// completion endpoint, using JSON response-format mode and a schema
// description injected into the system prompt, in place of this codebase's
// former hand-rolled HTTP client.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAIClient) GenerateObject(ctx context.Context, schema domain.ResponseSchema, messages []domain.Message, temperature float64) (map[string]any, *domain.LLMUsage, error) {
	chatMsgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: schemaInstruction(schema),
	})
	for _, m := range messages {
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: float32(temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("%w: no choices returned", domain.ErrLLMFailure)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &obj); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON response: %v", domain.ErrLLMFailure, err)
	}
	if err := validateAgainstSchema(schema, obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	usage := &domain.LLMUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return obj, usage, nil
}

func schemaInstruction(schema domain.ResponseSchema) string {
	var b strings.Builder
	b.WriteString("You must respond with a single JSON object named \"")
	b.WriteString(schema.Name)
	b.WriteString("\" matching this shape:\n")
	for _, f := range schema.Fields {
		b.WriteString(fmt.Sprintf("- %s: %s", f.Name, f.Type))
		if len(f.Enum) > 0 {
			b.WriteString(" (one of: " + strings.Join(f.Enum, ", ") + ")")
		}
		if f.Required {
			b.WriteString(" [required]")
		}
		b.WriteString("\n")
	}
	b.WriteString("Respond with ONLY the JSON object, no markdown fences, no explanation.")
	return b.String()
}

func validateAgainstSchema(schema domain.ResponseSchema, obj map[string]any) error {
	for _, f := range schema.Fields {
		if !f.Required {
			continue
		}
		if _, ok := obj[f.Name]; !ok {
			return fmt.Errorf("missing required field %q", f.Name)
		}
	}
	return nil
}
