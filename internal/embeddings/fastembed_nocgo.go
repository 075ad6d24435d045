//go:build !cgo

package embeddings

import (
	"context"
	"errors"
)

// ErrFastEmbedNotAvailable is returned by binaries built without cgo.
var ErrFastEmbedNotAvailable = errors.New("fastembed: not available in a binary built without cgo, use the openai provider")

// DefaultFastEmbedModel is used when no model is configured.
const DefaultFastEmbedModel = "BAAI/bge-small-en-v1.5"

// FastEmbedConfig configures the local ONNX provider.
type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
}

// FastEmbedProvider is unavailable without cgo.
type FastEmbedProvider struct{}

// NewFastEmbedProvider always fails without cgo.
func NewFastEmbedProvider(FastEmbedConfig) (*FastEmbedProvider, error) {
	return nil, ErrFastEmbedNotAvailable
}

// EmbedQuery always fails without cgo.
func (*FastEmbedProvider) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

// EmbedDocuments always fails without cgo.
func (*FastEmbedProvider) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

// Model returns the default model name.
func (*FastEmbedProvider) Model() string { return DefaultFastEmbedModel }

// Close is a no-op.
func (*FastEmbedProvider) Close() error { return nil }
