// Package indexer embeds catalog lectures and upserts them into the vector
// index, skipping documents whose content has not changed since the last
// run.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/embeddings"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

// DefaultBatchSize is the number of documents embedded per request.
const DefaultBatchSize = 64

// Stats counts what one run did.
type Stats struct {
	Documents int
	Upserted  int
	Unchanged int
	// Skipped lectures had times that do not parse.
	Skipped int
}

// Options tunes a run.
type Options struct {
	BatchSize int
	// Force re-embeds every document regardless of the manifest.
	Force bool
	// DryRun builds and diffs documents without embedding or upserting.
	DryRun bool
}

// Indexer builds and upserts documents.
type Indexer struct {
	embedder embeddings.Provider
	index    vectorindex.Index
	manifest *Manifest
	logger   *logging.Logger
	now      func() time.Time
}

// New creates an indexer.
func New(embedder embeddings.Provider, index vectorindex.Index, manifest *Manifest, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Indexer{
		embedder: embedder,
		index:    index,
		manifest: manifest,
		logger:   logger.Named("indexer"),
		now:      time.Now,
	}
}

// Run indexes every lecture in snap. Batches that were upserted before a
// failure stay recorded in the manifest, so a rerun resumes where this one
// stopped.
func (ix *Indexer) Run(ctx context.Context, snap *catalog.Snapshot, opts Options) (stats Stats, err error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	started := ix.now()
	defer func() {
		run := Run{StartedAt: started, FinishedAt: ix.now(), Stats: stats}
		if err != nil {
			run.Err = err.Error()
		}
		if opts.DryRun {
			return
		}
		if recErr := ix.manifest.RecordRun(context.WithoutCancel(ctx), run); recErr != nil {
			ix.logger.Warn(ctx, "failed to record run", zap.Error(recErr))
		}
	}()

	model := ix.embedder.Model()
	var pending []Document
	seen := make(map[string]bool)
	for _, item := range snap.Items {
		doc, buildErr := BuildDocument(item, snap.Descriptions[strings.ToUpper(item.CourseCode)])
		if buildErr != nil {
			stats.Skipped++
			ix.logger.Warn(ctx, "lecture not indexed", zap.Error(buildErr))
			continue
		}
		if seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		stats.Documents++

		if !opts.Force {
			hash, ok, hashErr := ix.manifest.Hash(ctx, doc.ID)
			if hashErr != nil {
				return stats, hashErr
			}
			if ok && hash == doc.Hash(model) {
				stats.Unchanged++
				continue
			}
		}
		pending = append(pending, doc)
	}

	if opts.DryRun {
		ix.logger.Info(ctx, "dry run", zap.Int("documents", stats.Documents), zap.Int("would_upsert", len(pending)))
		return stats, nil
	}

	for start := 0; start < len(pending); start += opts.BatchSize {
		batch := pending[start:min(start+opts.BatchSize, len(pending))]
		if err := ix.upsert(ctx, model, batch); err != nil {
			return stats, err
		}
		stats.Upserted += len(batch)
		ix.logger.Debug(ctx, "batch indexed", zap.Int("upserted", stats.Upserted), zap.Int("pending", len(pending)))
	}

	ix.logger.Info(ctx, "index run finished",
		zap.Int("documents", stats.Documents),
		zap.Int("upserted", stats.Upserted),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (ix *Indexer) upsert(ctx context.Context, model string, batch []Document) error {
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Content
	}
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return errors.New("embedding batch: vector count does not match documents")
	}

	records := make([]vectorindex.Record, len(batch))
	entries := make([]Entry, len(batch))
	now := ix.now()
	for i, d := range batch {
		records[i] = d.Record(vectors[i])
		entries[i] = Entry{ID: d.ID, Code: d.Metadata.Code, Hash: d.Hash(model), Model: model, IndexedAt: now}
	}
	if err := ix.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upserting batch: %w", err)
	}
	if err := ix.manifest.Put(ctx, entries); err != nil {
		return fmt.Errorf("updating manifest: %w", err)
	}
	return nil
}
