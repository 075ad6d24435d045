package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sitin/internal/config"
)

var (
	// ErrEmptyInput is returned for empty texts.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidConfig is returned for unknown providers or models.
	ErrInvalidConfig = errors.New("invalid embedding config")

	// ErrEmbeddingFailed wraps provider failures.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder produces vectors for queries and documents.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider is an Embedder with a known model and lifetime.
type Provider interface {
	Embedder
	Model() string
	Close() error
}

// New creates the provider selected by embedding.provider, instrumented
// with metrics.
func New(cfg *config.Config, metrics *Metrics) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Embedding.Provider {
	case "openai", "":
		p, err = NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey.Value(),
			Model:   cfg.Embedding.Model,
			BaseURL: cfg.Embedding.BaseURL,
		})
	case "fastembed":
		p, err = NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Embedding.Model,
			CacheDir: cfg.Embedding.CacheDir,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (supported: openai, fastembed)", ErrInvalidConfig, cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		return p, nil
	}
	return Instrument(p, metrics), nil
}
