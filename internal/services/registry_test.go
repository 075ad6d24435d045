package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/embeddings"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/secrets"
	"github.com/fyrsmithlabs/sitin/internal/telemetry"
	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

type closingEmbedder struct {
	embeddings.Provider
	err error
}

func (c closingEmbedder) Close() error { return c.err }

type closingIndex struct {
	vectorindex.Index
	err error
}

func (c closingIndex) Close() error { return c.err }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Port = 3000
	cfg.Vector.Provider = "chromem"
	cfg.Vector.TopK = 10
	cfg.Vector.DisplayCount = 3
	cfg.Chromem.Path = t.TempDir()
	cfg.Chromem.Collection = "courses"
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.Model = "text-embedding-ada-002"
	cfg.Embedding.BaseURL = "http://127.0.0.1:1/v1"
	cfg.Chat.Provider = "openai"
	cfg.Chat.BaseURL = "http://127.0.0.1:1/v1"
	cfg.OpenAI.APIKey = config.Secret("sk-test")
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	return cfg
}

func TestRegistryAccessors(t *testing.T) {
	reg := NewRegistry(Options{})
	assert.Nil(t, reg.Catalog())
	assert.Nil(t, reg.Assistant())
	assert.Nil(t, reg.Embedder())
	assert.Nil(t, reg.Index())
	assert.Nil(t, reg.Chat())
	assert.Nil(t, reg.Scrubber())
	assert.NoError(t, reg.Close())

	scrubber := secrets.Noop{}
	reg = NewRegistry(Options{Scrubber: scrubber})
	assert.Equal(t, scrubber, reg.Scrubber())
}

func TestRegistryClose_JoinsErrors(t *testing.T) {
	embedErr := errors.New("embedder stuck")
	indexErr := errors.New("index stuck")
	reg := NewRegistry(Options{
		Embedder: closingEmbedder{err: embedErr},
		Index:    closingIndex{err: indexErr},
	})

	err := reg.Close()
	assert.ErrorIs(t, err, embedErr)
	assert.ErrorIs(t, err, indexErr)
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	logs := logging.NewTestLogger()
	mp := telemetry.NewTestTelemetry().MeterProvider()

	t.Run("nothing requested", func(t *testing.T) {
		reg, err := Build(ctx, testConfig(t), nil, nil, Needs{})
		require.NoError(t, err)
		assert.Nil(t, reg.Catalog())
		assert.Nil(t, reg.Assistant())
	})

	t.Run("catalog without airtable settings", func(t *testing.T) {
		_, err := Build(ctx, testConfig(t), logs.Logger, mp, Needs{Catalog: true})
		require.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "airtable.api_key")
	})

	t.Run("catalog", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Airtable.APIKey = config.Secret("pat-test")
		cfg.Airtable.BaseID = "appTEST"
		cfg.Airtable.CoursesTable = "Courses"
		cfg.Airtable.SectionsTable = "Sections"

		reg, err := Build(ctx, cfg, logs.Logger, mp, Needs{Catalog: true})
		require.NoError(t, err)
		require.NotNil(t, reg.Catalog())
		assert.True(t, reg.Catalog().RefreshedAt().IsZero())
	})

	t.Run("retrieval only", func(t *testing.T) {
		reg, err := Build(ctx, testConfig(t), logs.Logger, mp, Needs{Retrieval: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = reg.Close() })

		assert.NotNil(t, reg.Embedder())
		assert.NotNil(t, reg.Index())
		assert.Nil(t, reg.Assistant())
		logs.AssertField(t, "retrieval initialized", "vector_provider", "chromem")
	})

	t.Run("assistant", func(t *testing.T) {
		reg, err := Build(ctx, testConfig(t), logs.Logger, mp, Needs{Assistant: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = reg.Close() })

		assert.NotNil(t, reg.Assistant())
		assert.NotNil(t, reg.Chat())
		require.NotNil(t, reg.Scrubber())
		assert.True(t, reg.Scrubber().IsEnabled())
	})

	t.Run("assistant reports missing keys together", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.OpenAI.APIKey = ""
		cfg.Chat.Provider = "anthropic"

		_, err := Build(ctx, cfg, logs.Logger, mp, Needs{Assistant: true})
		require.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "openai.api_key")
		assert.Contains(t, err.Error(), "anthropic.api_key")
	})
}

func TestNewScrubber(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewScrubber(cfg)
	require.NoError(t, err)
	assert.True(t, s.IsEnabled())
	assert.True(t, s.Scrub("my pid is A12345678").HasFindings())

	cfg.Privacy.Disabled = true
	s, err = NewScrubber(cfg)
	require.NoError(t, err)
	assert.False(t, s.IsEnabled())
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t)
	logger, err := NewLogger(cfg, true)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Logging.Level = "loud"
	_, err = NewLogger(cfg, false)
	assert.Error(t, err)
}

func TestNewTelemetry_Disabled(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), testConfig(t), "v1.2.3")
	require.NoError(t, err)
	assert.NoError(t, tel.Degraded())
	assert.NotNil(t, tel.MeterProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestBuild_BestEffort(t *testing.T) {
	logs := logging.NewTestLogger()
	cfg := testConfig(t)
	cfg.OpenAI.APIKey = ""

	reg, err := Build(context.Background(), cfg, logs.Logger, nil, Needs{Catalog: true, Assistant: true, BestEffort: true})
	require.NoError(t, err)
	assert.Nil(t, reg.Catalog())
	assert.Nil(t, reg.Assistant())
	assert.Nil(t, reg.Embedder())
	logs.AssertLogged(t, zapcore.WarnLevel, "catalog disabled")
	logs.AssertLogged(t, zapcore.WarnLevel, "assistant disabled")
}

func TestNewCatalog_SeparateBases(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.Airtable.APIKey = config.Secret("pat-test")
	cfg.Airtable.BaseURL = srv.URL
	cfg.Airtable.RequestsPerSecond = 1000
	cfg.Airtable.CoursesBaseID = "appCourses"
	cfg.Airtable.SectionsBaseID = "appSections"
	cfg.Airtable.CoursesTable = "Courses"
	cfg.Airtable.SectionsTable = "Sections"

	store, err := NewCatalog(cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"/appCourses/Courses", "/appSections/Sections"}, paths)
}
