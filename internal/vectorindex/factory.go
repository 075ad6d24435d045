package vectorindex

import (
	"fmt"

	"github.com/fyrsmithlabs/sitin/internal/config"
)

// New opens the backend selected by vector.provider and wraps it with
// Prometheus instrumentation.
//
//	idx, err := vectorindex.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
func New(cfg *config.Config) (Index, error) {
	var (
		idx Index
		err error
	)

	switch cfg.Vector.Provider {
	case "pinecone", "":
		idx, err = NewPinecone(PineconeConfig{
			APIKey:    cfg.Pinecone.APIKey.Value(),
			IndexName: cfg.Pinecone.IndexName,
			Host:      cfg.Pinecone.Host,
			Namespace: cfg.Pinecone.Namespace,
		})
	case "qdrant":
		idx, err = NewQdrant(QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey.Value(),
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Qdrant.Collection,
		})
	case "chromem":
		idx, err = NewChromem(ChromemConfig{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			Collection: cfg.Chromem.Collection,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported vector provider %q (supported: pinecone, qdrant, chromem)",
			ErrInvalidConfig, cfg.Vector.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s index: %w", cfg.Vector.Provider, err)
	}

	backend := cfg.Vector.Provider
	if backend == "" {
		backend = "pinecone"
	}
	return Instrument(idx, backend), nil
}
