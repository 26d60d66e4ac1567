package inference

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient talks to the OpenAI API or any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client. baseURL may point at a compatible server;
// empty means the official endpoint.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

// Provider returns the backend name.
func (c *OpenAIClient) Provider() string {
	return "openai"
}

// buildChatParams maps a backend-neutral request onto the API's parameters.
// The temperature is always sent: 0.0 is a deliberate setting for the expert,
// not an absence, and must not fall back to the provider default.
func buildChatParams(req ChatRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.JSONFormat {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// Chat sends the full conversation and returns the model's reply. Tool turns
// carry no native tool-call IDs in this protocol, so they are replayed as
// user messages, which compatible endpoints accept without complaint.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	response, err := c.client.Chat.Completions.New(ctx, buildChatParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai chat with model %s failed: %w", req.Model, err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices for model %s", req.Model)
	}

	return &ChatResponse{Content: response.Choices[0].Message.Content}, nil
}
