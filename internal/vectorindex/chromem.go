package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ChromemConfig configures the embedded chromem backend.
type ChromemConfig struct {
	// Path is the persistence directory. Empty keeps the index in memory.
	Path       string
	Compress   bool
	Collection string
}

// Chromem is an Index held in an embedded chromem database. chromem only
// supports exact-match metadata filters, so range clauses are evaluated in
// process after the similarity search.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromem opens or creates the database and collection.
func NewChromem(cfg ChromemConfig) (*Chromem, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: chromem collection required", ErrInvalidConfig)
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		path, err := expandHome(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("creating chromem directory: %w", err)
		}
		db, err = chromem.NewPersistentDB(path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", cfg.Collection, err)
	}
	return &Chromem{db: db, collection: collection}, nil
}

// precomputedOnly is the collection's embedding func. Every document and
// query carries its own vector, so chromem never needs to embed text.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem: embeddings must be precomputed")
}

// Query searches by vector and applies the filter to the candidates.
func (c *Chromem) Query(ctx context.Context, vector []float32, k int, f Filter) ([]Match, error) {
	ctx, span := tracer.Start(ctx, "Chromem.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", k))

	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector: %w", ErrEmptyInput)
	}
	count := c.collection.Count()
	if count == 0 || k <= 0 {
		return []Match{}, nil
	}

	// chromem requires nResults <= document count. With a filter, rank
	// everything and keep the first k that pass.
	n := min(k, count)
	if !f.IsEmpty() {
		n = count
	}

	results, err := c.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying chromem: %w", err)
	}

	matches := make([]Match, 0, k)
	for _, r := range results {
		meta := chromemMetadata(r.Metadata)
		if !f.Matches(meta) {
			continue
		}
		matches = append(matches, Match{ID: r.ID, Score: r.Similarity, Metadata: meta})
		if len(matches) == k {
			break
		}
	}
	span.SetAttributes(attribute.Int("results_count", len(matches)))
	return matches, nil
}

// Upsert adds documents; chromem replaces existing IDs.
func (c *Chromem) Upsert(ctx context.Context, records []Record) error {
	ctx, span := tracer.Start(ctx, "Chromem.Upsert")
	defer span.End()

	if len(records) == 0 {
		return fmt.Errorf("upsert: %w", ErrEmptyInput)
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		content := r.Content
		if content == "" {
			content = r.Metadata.Code + ": " + r.Metadata.Title
		}
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   content,
			Metadata:  chromemStrings(r.Metadata),
			Embedding: r.Values,
		}
	}
	if err := c.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Close is a no-op; persistent writes happen on each upsert.
func (c *Chromem) Close() error { return nil }

func chromemStrings(m Metadata) map[string]string {
	out := make(map[string]string, 16)
	for key, v := range m.Map() {
		switch val := v.(type) {
		case string:
			out[key] = val
		case int:
			out[key] = strconv.Itoa(val)
		case []string:
			out[key] = strings.Join(val, ",")
		}
	}
	return out
}

func chromemMetadata(raw map[string]string) Metadata {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	return MetadataFromMap(m)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return filepath.Clean(path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

var _ Index = (*Chromem)(nil)
