package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// jsonFormat constrains ollama output to a syntactically valid JSON object.
var jsonFormat = json.RawMessage(`"json"`)

// OllamaClient talks to a local or remote ollama server.
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates a client for the given host. An empty host falls
// back to the OLLAMA_HOST environment or the default local endpoint. Local
// model loads can take minutes, so no response timeout is imposed here; the
// dial still times out quickly when the server is unreachable.
func NewOllamaClient(host string) (*OllamaClient, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}
	httpClient := &http.Client{Transport: transport}

	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
		return &OllamaClient{client: client}, nil
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	return &OllamaClient{client: api.NewClient(base, httpClient)}, nil
}

// Provider returns the backend name.
func (c *OllamaClient) Provider() string {
	return "ollama"
}

// Chat sends the full conversation and returns the model's reply.
func (c *OllamaClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{"temperature": req.Temperature},
	}
	if req.JSONFormat {
		chatReq.Format = jsonFormat
	}
	if req.Thinking {
		chatReq.Think = &api.ThinkValue{Value: true}
	}

	var content, thinking strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		thinking.WriteString(resp.Message.Thinking)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat with model %s failed: %w", req.Model, err)
	}

	return &ChatResponse{
		Content:  content.String(),
		Thinking: thinking.String(),
	}, nil
}
