package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fyrsmithlabs/sitin/internal/config"
)

// fakeOpenAI answers the embeddings endpoint with one vector per input,
// whose first element is the input's position.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(i), 0.5}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Embed(t *testing.T) {
	srv := fakeOpenAI(t)
	p, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, p.Model())

	vec, err := p.EmbedQuery(context.Background(), "evening CSE classes")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5}, vec)

	vecs, err := p.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(2), vecs[2][0])
}

func TestOpenAI_Validation(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	srv := fakeOpenAI(t)
	p, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = p.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.Embedding.Provider = "word2vec"
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

type stubProvider struct{ err error }

func (s stubProvider) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1}, s.err
}
func (s stubProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), s.err
}
func (stubProvider) Model() string { return "stub" }
func (stubProvider) Close() error  { return nil }

func TestInstrument_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp, nil)

	ctx := context.Background()
	_, _ = Instrument(stubProvider{}, m).EmbedDocuments(ctx, []string{"a", "b"})
	_, _ = Instrument(stubProvider{err: errors.New("rate limited")}, m).EmbedQuery(ctx, "q")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			found[metric.Name] = true
			if metric.Name == "sitin.embedding.errors_total" {
				sum, ok := metric.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				require.Len(t, sum.DataPoints, 1)
				assert.Equal(t, int64(1), sum.DataPoints[0].Value)
			}
		}
	}
	assert.True(t, found["sitin.embedding.duration_seconds"])
	assert.True(t, found["sitin.embedding.batch_size"])
	assert.True(t, found["sitin.embedding.errors_total"])
}
