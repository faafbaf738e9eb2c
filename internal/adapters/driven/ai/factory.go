// Package ai provides factory functions for creating model clients.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/llm/anthropic"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/adapters/driven/llm/openai"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// defaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint.
const defaultOllamaBaseURL = "http://localhost:11434/v1"

// Config selects and configures a model provider.
type Config struct {
	// Provider is "anthropic" (default), "openai" or "ollama".
	Provider string

	// APIKey authenticates against the provider.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the model name; empty uses the provider default.
	Model string
}

// IsConfigured reports whether enough is set to create a client.
func (c Config) IsConfigured() bool {
	switch c.Provider {
	case "ollama":
		return true
	default:
		return c.APIKey != "" || c.BaseURL != ""
	}
}

// Pinger is implemented by clients that support a connectivity check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewModelClient creates the configured model client. Returns (nil, nil)
// when no provider is configured, so callers can run without a model.
func NewModelClient(cfg Config) (driven.ModelClient, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}

	switch cfg.Provider {
	case "", "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		return openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: baseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("ai: unknown model provider %q", cfg.Provider)
	}
}

// ValidateClient pings the client when it supports it. Intended for
// configuration-time checks, not the request path.
func ValidateClient(client driven.ModelClient) error {
	pinger, ok := client.(Pinger)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return pinger.Ping(ctx)
}
