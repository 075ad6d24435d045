package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/airtable"
	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/embeddings"
	"github.com/fyrsmithlabs/sitin/internal/llm"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/secrets"
	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// Needs selects which services Build constructs.
type Needs struct {
	// Catalog reads the record store.
	Catalog bool
	// Retrieval opens the embedder and the vector index.
	Retrieval bool
	// Assistant builds the answering pipeline; implies Retrieval.
	Assistant bool
	// BestEffort drops a requested catalog or assistant whose settings are
	// missing instead of failing.
	BestEffort bool
}

// Build constructs the requested services. On error everything already
// opened is closed.
func Build(ctx context.Context, cfg *config.Config, logger *logging.Logger, mp metric.MeterProvider, needs Needs) (Registry, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if needs.BestEffort {
		if err := cfg.RequireAirtable(); needs.Catalog && err != nil {
			logger.Warn(ctx, "catalog disabled", zap.Error(err))
			needs.Catalog = false
		}
		if err := cfg.RequireAssistant(); needs.Assistant && err != nil {
			logger.Warn(ctx, "assistant disabled", zap.Error(err))
			needs.Assistant = false
		}
	}
	if needs.Assistant {
		needs.Retrieval = true
	}

	var opts Options
	fail := func(err error) (Registry, error) {
		_ = NewRegistry(opts).Close()
		return nil, err
	}

	if needs.Catalog {
		store, err := NewCatalog(cfg, logger)
		if err != nil {
			return fail(err)
		}
		opts.Catalog = store
	}

	if needs.Assistant {
		// Report every missing credential at once instead of failing on
		// the first constructor.
		if err := cfg.RequireAssistant(); err != nil {
			return fail(err)
		}
	}

	if needs.Retrieval {
		embedder, err := embeddings.New(cfg, embeddings.NewMetrics(mp, logger.Underlying()))
		if err != nil {
			return fail(fmt.Errorf("creating embedder: %w", err))
		}
		opts.Embedder = embedder

		index, err := vectorindex.New(cfg)
		if err != nil {
			return fail(fmt.Errorf("opening vector index: %w", err))
		}
		opts.Index = index

		logger.Info(ctx, "retrieval initialized",
			zap.String("embedding_provider", cfg.Embedding.Provider),
			zap.String("embedding_model", embedder.Model()),
			zap.String("vector_provider", cfg.Vector.Provider))
	}

	if needs.Assistant {
		chat, err := llm.New(ctx, cfg, mp)
		if err != nil {
			return fail(fmt.Errorf("creating chat model: %w", err))
		}
		opts.Chat = chat

		scrubber, err := NewScrubber(cfg)
		if err != nil {
			return fail(err)
		}
		opts.Scrubber = scrubber

		pipeline, err := assistant.NewPipeline(opts.Embedder, opts.Index, chat, scrubber, logger, assistant.Options{
			TopK:         cfg.Vector.TopK,
			DisplayCount: cfg.Vector.DisplayCount,
			Timeout:      cfg.Assistant.Timeout.Duration(),
		})
		if err != nil {
			return fail(err)
		}
		opts.Assistant = pipeline

		logger.Info(ctx, "assistant initialized",
			zap.String("chat_provider", cfg.Chat.Provider),
			zap.String("chat_model", chat.Name()),
			zap.Bool("scrubbing", scrubber.IsEnabled()))
	}

	return NewRegistry(opts), nil
}

// NewCatalog creates a catalog store over the configured Airtable base.
// The store is empty until its first Refresh.
func NewCatalog(cfg *config.Config, logger *logging.Logger) (*catalog.Store, error) {
	if err := cfg.RequireAirtable(); err != nil {
		return nil, err
	}
	client, err := airtable.NewClient(airtable.Config{
		APIKey:            cfg.Airtable.APIKey.Value(),
		BaseID:            cfg.Airtable.DefaultBase(),
		BaseURL:           cfg.Airtable.BaseURL,
		RequestsPerSecond: cfg.Airtable.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("creating airtable client: %w", err)
	}
	source := airtable.NewSource(client, airtable.Tables{
		Courses:      cfg.Airtable.CoursesTable,
		Sections:     cfg.Airtable.SectionsTable,
		Descriptions: cfg.Airtable.DescriptionsTable,

		CoursesBase:      cfg.Airtable.CoursesBaseID,
		SectionsBase:     cfg.Airtable.SectionsBaseID,
		DescriptionsBase: cfg.Airtable.DescriptionsBaseID,
	})
	return catalog.NewStore(source, logger), nil
}

// NewScrubber creates the question scrubber. privacy.disabled turns it
// into a pass-through.
func NewScrubber(cfg *config.Config) (secrets.Scrubber, error) {
	sc := secrets.DefaultConfig()
	sc.Enabled = !cfg.Privacy.Disabled
	scrubber, err := secrets.New(sc)
	if err != nil {
		return nil, fmt.Errorf("creating scrubber: %w", err)
	}
	return scrubber, nil
}

