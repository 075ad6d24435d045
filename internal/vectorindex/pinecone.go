package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/sitin/internal/vectorindex")

const (
	pineconeControlPlane = "https://api.pinecone.io"
	pineconeAPIVersion   = "2024-07"
)

// PineconeConfig configures the Pinecone data plane client.
type PineconeConfig struct {
	APIKey string

	// IndexName is resolved to a host through the control plane when Host
	// is empty.
	IndexName string

	// Host is the index data plane host, with or without scheme.
	Host string

	Namespace string

	// ControlPlaneURL overrides https://api.pinecone.io.
	ControlPlaneURL string

	// RequestsPerSecond caps outgoing requests. Zero means unlimited.
	RequestsPerSecond float64

	HTTPClient *http.Client
}

// Validate checks required fields.
func (c PineconeConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: pinecone api key required", ErrInvalidConfig)
	}
	if c.IndexName == "" && c.Host == "" {
		return fmt.Errorf("%w: pinecone index name or host required", ErrInvalidConfig)
	}
	return nil
}

// Pinecone is an Index backed by the Pinecone REST data plane.
type Pinecone struct {
	cfg     PineconeConfig
	client  *http.Client
	limiter *rate.Limiter

	hostMu sync.Mutex
	host   string
}

// NewPinecone creates a Pinecone client. No request is made until the first
// Query or Upsert.
func NewPinecone(cfg PineconeConfig) (*Pinecone, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ControlPlaneURL == "" {
		cfg.ControlPlaneURL = pineconeControlPlane
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Pinecone{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

type pineconeQueryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
	Namespace       string         `json:"namespace,omitempty"`
}

type pineconeQueryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float32        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type pineconeUpsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace,omitempty"`
}

// Query runs a top-k query with metadata included.
func (p *Pinecone) Query(ctx context.Context, vector []float32, k int, f Filter) ([]Match, error) {
	ctx, span := tracer.Start(ctx, "Pinecone.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", k), attribute.Bool("filtered", !f.IsEmpty()))

	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector: %w", ErrEmptyInput)
	}

	var resp pineconeQueryResponse
	err := p.post(ctx, "/query", pineconeQueryRequest{
		Vector:          vector,
		TopK:            k,
		IncludeMetadata: true,
		Filter:          f.Document(),
		Namespace:       p.cfg.Namespace,
	}, &resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	matches := make([]Match, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = Match{ID: m.ID, Score: m.Score, Metadata: MetadataFromMap(m.Metadata)}
	}
	span.SetAttributes(attribute.Int("results_count", len(matches)))
	return matches, nil
}

// Upsert writes records in a single request. Callers batch.
func (p *Pinecone) Upsert(ctx context.Context, records []Record) error {
	ctx, span := tracer.Start(ctx, "Pinecone.Upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("record_count", len(records)))

	if len(records) == 0 {
		return fmt.Errorf("upsert: %w", ErrEmptyInput)
	}

	vectors := make([]pineconeVector, len(records))
	for i, r := range records {
		meta := r.Metadata.Map()
		if r.Content != "" {
			meta["text"] = r.Content
		}
		vectors[i] = pineconeVector{ID: r.ID, Values: r.Values, Metadata: meta}
	}

	if err := p.post(ctx, "/vectors/upsert", pineconeUpsertRequest{
		Vectors:   vectors,
		Namespace: p.cfg.Namespace,
	}, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("pinecone upsert: %w", err)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (p *Pinecone) Close() error { return nil }

func (p *Pinecone) post(ctx context.Context, path string, body, out any) error {
	host, err := p.resolveHost(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, out)
}

func (p *Pinecone) do(req *http.Request, out any) error {
	if err := p.limiter.Wait(req.Context()); err != nil {
		return err
	}
	req.Header.Set("Api-Key", p.cfg.APIKey)
	req.Header.Set("X-Pinecone-API-Version", pineconeAPIVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// resolveHost returns the data plane base URL, describing the index on
// first use if only its name is configured. Failures are not cached.
func (p *Pinecone) resolveHost(ctx context.Context) (string, error) {
	p.hostMu.Lock()
	defer p.hostMu.Unlock()
	if p.host != "" {
		return p.host, nil
	}
	if p.cfg.Host != "" {
		p.host = withScheme(p.cfg.Host)
		return p.host, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(p.cfg.ControlPlaneURL, "/")+"/indexes/"+p.cfg.IndexName, nil)
	if err != nil {
		return "", err
	}
	var desc struct {
		Host string `json:"host"`
	}
	if err := p.do(req, &desc); err != nil {
		return "", fmt.Errorf("describing index %s: %w", p.cfg.IndexName, err)
	}
	if desc.Host == "" {
		return "", fmt.Errorf("describing index %s: %w", p.cfg.IndexName, ErrNotFound)
	}
	p.host = withScheme(desc.Host)
	return p.host, nil
}

func withScheme(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

var _ Index = (*Pinecone)(nil)
