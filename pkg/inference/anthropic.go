package inference

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a client for the given API key.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Provider returns the backend name.
func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

// buildMessageParams maps a backend-neutral request onto the API's
// parameters. The temperature is always sent so a deliberate 0.0 does not
// fall back to the provider default.
func buildMessageParams(req ChatRequest) anthropic.MessageNewParams {
	var system string
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "assistant":
			messages = append(messages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(m.Content),
				},
			})
		default:
			// Tool results carry no native IDs in this protocol; replay
			// them as user messages like the other text turns.
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    messages,
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// Chat sends the full conversation and returns the model's reply. The API
// has no JSON output mode, so structured output relies on the system prompt's
// instructions; the JSONFormat flag is accepted but not enforced here.
func (c *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	response, err := c.client.Messages.New(ctx, buildMessageParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic chat with model %s failed: %w", req.Model, err)
	}

	content := ""
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}

	return &ChatResponse{Content: content}, nil
}
