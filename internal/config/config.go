// Package config holds the model and endpoint tables used by the completion
// client. A Config is built once at startup and shared read-only.
package config

import (
	"fmt"
	"time"
)

// RequestStyle describes the request shape a model's API expects.
type RequestStyle string

const (
	StyleChat       RequestStyle = "chat"
	StyleCompletion RequestStyle = "completion"
	StyleEmbedding  RequestStyle = "embedding"
)

const (
	DefaultModel           = "gpt-4-1106-preview"
	DefaultCompletionModel = "gemini-compete-wus"
	DefaultFilteredMessage = "Content filter triggered"
	DefaultRequestTimeout  = 200 * time.Second
	DefaultMaxJitter       = 200 * time.Millisecond
	DefaultMaxTrial        = 100
)

// DefaultBusyMessages are provider responses that signal expected throttling.
// Retries caused by them are not logged as warnings.
var DefaultBusyMessages = []string{
	"temporarily unable to process your request",
	"The server had an error while processing your request. Sorry about that!",
	"Requests to the Creates a completion for the chat message Operation under Azure OpenAI API",
	"Requests to the Completions_Create Operation under Azure OpenAI API version",
	"Rate limit reached for",
	"exceeded call rate limit",
}

// Config is the process-wide model and endpoint configuration.
type Config struct {
	Models          map[string]ModelConfig    `yaml:"models"`
	Endpoints       map[string]EndpointConfig `yaml:"endpoints"`
	BusyMessages    []string                  `yaml:"busy_messages"`
	FilteredMessage string                    `yaml:"filtered_message"`
	RequestTimeout  time.Duration             `yaml:"request_timeout"`
	MaxJitter       time.Duration             `yaml:"max_jitter"`
	MaxTrial        int                       `yaml:"max_trial"`
}

// ModelConfig maps a model identifier to the endpoint serving it.
type ModelConfig struct {
	Endpoint string       `yaml:"endpoint"`
	Type     RequestStyle `yaml:"type"`
}

// EndpointConfig describes where and how to reach a provider endpoint.
type EndpointConfig struct {
	URL string `yaml:"url"`

	// Headers are sent as-is. Values are env-expanded once at load time.
	Headers map[string]string `yaml:"headers"`

	// DynamicHeaders are env-expanded on every request, so credentials
	// rotated in the environment are picked up without a restart.
	DynamicHeaders map[string]string `yaml:"dynamic_headers"`

	// HeaderFunc, when set, takes precedence over both header maps.
	HeaderFunc DynamicHeaderFunc `yaml:"-"`
}

// Default returns the built-in configuration. Endpoint URLs and credentials
// come from the AZURE_OPENAI_* environment variables.
func Default() *Config {
	return &Config{
		Models: map[string]ModelConfig{
			DefaultModel:             {Endpoint: "azure", Type: StyleChat},
			DefaultCompletionModel:   {Endpoint: "azure-completions", Type: StyleCompletion},
			"text-embedding-ada-002": {Endpoint: "openai-embeddings", Type: StyleEmbedding},
		},
		Endpoints: map[string]EndpointConfig{
			"openai-embeddings": {
				URL:            ExpandEnv("${AZURE_OPENAI_EMBEDDINGS_URL}"),
				DynamicHeaders: map[string]string{"Authorization": "${AZURE_OPENAI_API_KEY}"},
			},
			"azure": {
				URL:            ExpandEnv("${AZURE_OPENAI_CHAT_ENDPOINT_URL}"),
				DynamicHeaders: map[string]string{"Authorization": "Bearer ${AZURE_OPENAI_CHAT_API_KEY}"},
			},
			"azure-completions": {
				URL:            ExpandEnv("${AZURE_OPENAI_COMPLETIONS_URL}"),
				DynamicHeaders: map[string]string{"api-key": "${AZURE_OPENAI_API_KEY}"},
			},
		},
		BusyMessages:    append([]string(nil), DefaultBusyMessages...),
		FilteredMessage: DefaultFilteredMessage,
		RequestTimeout:  DefaultRequestTimeout,
		MaxJitter:       DefaultMaxJitter,
		MaxTrial:        DefaultMaxTrial,
	}
}

// Validate checks that every model references a known endpoint and a
// supported request style.
func (c *Config) Validate() error {
	for name, m := range c.Models {
		switch m.Type {
		case StyleChat, StyleCompletion, StyleEmbedding:
		default:
			return fmt.Errorf("model %s: unsupported type %q", name, m.Type)
		}
		if _, ok := c.Endpoints[m.Endpoint]; !ok {
			return &UnknownEndpointError{Model: name, Endpoint: m.Endpoint}
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.MaxJitter < 0 {
		return fmt.Errorf("max_jitter must not be negative")
	}
	return nil
}

// Resolve looks up the model and the endpoint that serves it.
func (c *Config) Resolve(model string) (ModelConfig, EndpointConfig, error) {
	m, ok := c.Models[model]
	if !ok {
		return ModelConfig{}, EndpointConfig{}, &UnknownModelError{Model: model}
	}
	ep, ok := c.Endpoints[m.Endpoint]
	if !ok {
		return ModelConfig{}, EndpointConfig{}, &UnknownEndpointError{Model: model, Endpoint: m.Endpoint}
	}
	if ep.URL == "" {
		return ModelConfig{}, EndpointConfig{}, fmt.Errorf("endpoint %s for model %s has no url configured", m.Endpoint, model)
	}
	return m, ep, nil
}

// ModelNames returns the configured model identifiers.
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	return names
}

// UnknownModelError is returned when a model is missing from the model table.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return "unknown model: " + e.Model
}

// UnknownEndpointError is returned when a model references a missing endpoint.
type UnknownEndpointError struct {
	Model    string
	Endpoint string
}

func (e *UnknownEndpointError) Error() string {
	return fmt.Sprintf("model %s references unknown endpoint %q", e.Model, e.Endpoint)
}
