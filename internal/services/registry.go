package services

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/embeddings"
	"github.com/fyrsmithlabs/sitin/internal/llm"
	"github.com/fyrsmithlabs/sitin/internal/secrets"
	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// Registry provides access to the built services. Accessors return nil
// for services that were not requested.
type Registry interface {
	Catalog() *catalog.Store
	Assistant() assistant.Answerer
	Embedder() embeddings.Provider
	Index() vectorindex.Index
	Chat() llm.ChatModel
	Scrubber() secrets.Scrubber
	Close() error
}

// Options configures the registry with service instances.
type Options struct {
	Catalog   *catalog.Store
	Assistant assistant.Answerer
	Embedder  embeddings.Provider
	Index     vectorindex.Index
	Chat      llm.ChatModel
	Scrubber  secrets.Scrubber
}

type registry struct {
	catalog   *catalog.Store
	assistant assistant.Answerer
	embedder  embeddings.Provider
	index     vectorindex.Index
	chat      llm.ChatModel
	scrubber  secrets.Scrubber
}

// NewRegistry creates a registry over already constructed services.
func NewRegistry(opts Options) Registry {
	return &registry{
		catalog:   opts.Catalog,
		assistant: opts.Assistant,
		embedder:  opts.Embedder,
		index:     opts.Index,
		chat:      opts.Chat,
		scrubber:  opts.Scrubber,
	}
}

func (r *registry) Catalog() *catalog.Store       { return r.catalog }
func (r *registry) Assistant() assistant.Answerer { return r.assistant }
func (r *registry) Embedder() embeddings.Provider { return r.embedder }
func (r *registry) Index() vectorindex.Index      { return r.index }
func (r *registry) Chat() llm.ChatModel           { return r.chat }
func (r *registry) Scrubber() secrets.Scrubber    { return r.scrubber }

// Close releases the embedder and the vector index.
func (r *registry) Close() error {
	var errs []error
	if r.embedder != nil {
		if err := r.embedder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("embedder close: %w", err))
		}
	}
	if r.index != nil {
		if err := r.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("vector index close: %w", err))
		}
	}
	return errors.Join(errs...)
}
