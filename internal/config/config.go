package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ModelSpec pairs a model reference with its sampling temperature. Specs are
// immutable after parsing.
type ModelSpec struct {
	Model       string  `json:"model" mapstructure:"model"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
}

// String renders the spec back into model:temperature form.
func (m ModelSpec) String() string {
	return fmt.Sprintf("%s:%.2f", m.Model, m.Temperature)
}

// ParseModelSpec parses a "model:temperature" argument. Model names may
// contain colons (e.g. "gemma3:4b:0.5"), so the split happens at the last
// colon.
func ParseModelSpec(value string) (ModelSpec, error) {
	idx := strings.LastIndex(value, ":")
	if idx <= 0 || idx == len(value)-1 {
		return ModelSpec{}, fmt.Errorf("invalid model spec %q: use 'model_name:temperature'", value)
	}

	model := value[:idx]
	temperature, err := strconv.ParseFloat(value[idx+1:], 64)
	if err != nil {
		return ModelSpec{}, fmt.Errorf("invalid temperature in model spec %q: use 'model_name:temperature'", value)
	}
	if temperature < 0 || temperature > 1 {
		return ModelSpec{}, fmt.Errorf("temperature in model spec %q must be between 0 and 1", value)
	}

	return ModelSpec{Model: model, Temperature: temperature}, nil
}

// ParseModelSpecs parses a list of "model:temperature" arguments.
func ParseModelSpecs(values []string) ([]ModelSpec, error) {
	specs := make([]ModelSpec, 0, len(values))
	for _, value := range values {
		spec, err := ParseModelSpec(value)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// BackendsConfig holds credentials and endpoints for inference backends.
type BackendsConfig struct {
	OllamaHost      string `json:"ollama_host" mapstructure:"ollama_host"`
	OpenAIAPIKey    string `json:"openai_api_key" mapstructure:"openai_api_key"`
	OpenAIBaseURL   string `json:"openai_base_url" mapstructure:"openai_base_url"`
	AnthropicAPIKey string `json:"anthropic_api_key" mapstructure:"anthropic_api_key"`
}

// SearchConfig tunes the web search adapter.
type SearchConfig struct {
	ResultCount     int      `json:"result_count" mapstructure:"result_count"`
	ExcludedDomains []string `json:"excluded_domains" mapstructure:"excluded_domains"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// Config is the full runtime configuration, merged from defaults, the config
// file, environment, and flags.
type Config struct {
	Expert        ModelSpec     `json:"expert" mapstructure:"expert"`
	Panel         []ModelSpec   `json:"panel" mapstructure:"panel"`
	MaxSteps      int           `json:"max_steps" mapstructure:"max_steps"`
	Verbose       bool          `json:"verbose" mapstructure:"verbose"`
	Thinking      bool          `json:"thinking" mapstructure:"thinking"`
	WriteConvo    bool          `json:"write_convo" mapstructure:"write_convo"`
	TranscriptDir string        `json:"transcript_dir" mapstructure:"transcript_dir"`
	Backends      BackendsConfig `json:"backends" mapstructure:"backends"`
	Search        SearchConfig  `json:"search" mapstructure:"search"`
	Logging       LoggingConfig `json:"logging" mapstructure:"logging"`
}

// DefaultConfig returns the defaults used when no file or flags override
// them.
func DefaultConfig() *Config {
	return &Config{
		Expert: ModelSpec{Model: "mistral-small3.2", Temperature: 0.0},
		Panel: []ModelSpec{
			{Model: "gemma3:4b", Temperature: 0.5},
			{Model: "granite3.3:2b", Temperature: 0.5},
			{Model: "qwen3:4b", Temperature: 0.5},
		},
		MaxSteps:      20,
		TranscriptDir: ".",
		Search: SearchConfig{
			ResultCount:     20,
			ExcludedDomains: []string{"substack.com"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks the merged configuration before a session starts.
func (c *Config) Validate() error {
	if c.Expert.Model == "" {
		return fmt.Errorf("expert model cannot be empty")
	}
	if c.Expert.Temperature < 0 || c.Expert.Temperature > 1 {
		return fmt.Errorf("expert temperature must be between 0 and 1")
	}
	if len(c.Panel) == 0 {
		return fmt.Errorf("at least one panel member is required")
	}
	for i, member := range c.Panel {
		if member.Model == "" {
			return fmt.Errorf("panel member %d has an empty model name", i)
		}
		if member.Temperature < 0 || member.Temperature > 1 {
			return fmt.Errorf("panel member %d temperature must be between 0 and 1", i)
		}
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive")
	}
	return nil
}
