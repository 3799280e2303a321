// Package provider abstracts the generative-model capability every
// LLM-driven decision in the assistant runs through. Handlers treat it
// as an injected dependency: a transport error from any method is
// caught at the handler boundary and converted into a user-facing
// message, never retried by the core.
package provider

import (
	"context"
	"errors"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	openai_provider "github.com/suyashnema0707/MedGraph-Navigator/internal/provider/openai"
)

// Provider is the contract all model backends satisfy.
type Provider interface {
	// Generate runs a single-prompt chat completion against the named model.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// GenerateVision runs a completion with an attached image. The image
	// bytes must already be in a single consistent encoding (PNG).
	GenerateVision(ctx context.Context, prompt, model string, image []byte) (string, error)

	// CreateEmbedding returns one vector per input text.
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider builds the configured backend.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("llm api key not configured")
		}
		return openai_provider.NewClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.EmbeddingModel,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Provider)
	}
}
