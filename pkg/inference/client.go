// Package inference provides thin adapters over LLM backends. The core only
// depends on the Client interface; concrete clients carry their own network
// policy (timeouts included) and report failures as ordinary errors.
package inference

import (
	"context"
	"fmt"
	"strings"
)

// Message is one conversation turn in backend-neutral form.
type Message struct {
	Role    string
	Content string
}

// ChatRequest carries everything a single chat call needs. JSONFormat asks
// the backend to constrain output to syntactically valid JSON; Thinking asks
// for an auxiliary reasoning trace when the model supports one.
type ChatRequest struct {
	Model       string
	Temperature float64
	Messages    []Message
	JSONFormat  bool
	Thinking    bool
}

// ChatResponse is the backend's reply. Thinking is empty when the model
// produced no trace or the backend does not support traces.
type ChatResponse struct {
	Content  string
	Thinking string
}

// Client is an adapter for one inference backend.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Provider() string
}

// FactoryConfig holds credentials and endpoints for the supported backends.
type FactoryConfig struct {
	OllamaHost      string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
}

// Factory builds clients from model references. A reference is either a bare
// model name, served by ollama, or "provider/model" for one of the known
// providers.
type Factory struct {
	cfg FactoryConfig
}

// NewFactory creates a client factory.
func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{cfg: cfg}
}

// SplitModelRef splits a model reference into provider and model name.
// Unknown prefixes are left in the model name and routed to ollama, since
// ollama model names may themselves contain slashes.
func SplitModelRef(ref string) (string, string) {
	if idx := strings.Index(ref, "/"); idx > 0 {
		switch prefix := ref[:idx]; prefix {
		case "ollama", "openai", "anthropic":
			return prefix, ref[idx+1:]
		}
	}
	return "ollama", ref
}

// NewClient returns a client for the referenced model along with the model
// name to pass on each call.
func (f *Factory) NewClient(modelRef string) (Client, string, error) {
	provider, model := SplitModelRef(modelRef)
	if model == "" {
		return nil, "", fmt.Errorf("model name cannot be empty in reference %q", modelRef)
	}

	switch provider {
	case "ollama":
		client, err := NewOllamaClient(f.cfg.OllamaHost)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create ollama client: %w", err)
		}
		return client, model, nil
	case "openai":
		return NewOpenAIClient(f.cfg.OpenAIAPIKey, f.cfg.OpenAIBaseURL), model, nil
	case "anthropic":
		return NewAnthropicClient(f.cfg.AnthropicAPIKey), model, nil
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", provider)
	}
}
