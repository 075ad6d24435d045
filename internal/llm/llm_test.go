package llm

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

	"github.com/fyrsmithlabs/sitin/internal/config"
	"github.com/fyrsmithlabs/sitin/internal/telemetry"
)

func TestOpenAI_Complete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4-turbo-preview",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "1. **CSE 110: Software Engineering**"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	m, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, m.Name())

	text, err := m.Complete(context.Background(), "You are an advisor.", "evening classes?")
	require.NoError(t, err)
	assert.Equal(t, "1. **CSE 110: Software Engineering**", text)

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOptions_TemperatureDefaults(t *testing.T) {
	opts := Options{}.withDefaults(DefaultOpenAIModel)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, DefaultTemperature, *opts.Temperature, 1e-9)

	zero := 0.0
	opts = Options{Temperature: &zero}.withDefaults(DefaultOpenAIModel)
	require.NotNil(t, opts.Temperature)
	assert.Zero(t, *opts.Temperature)
}

func TestAnthropic_ZeroTemperatureSent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude",
			"content": [{"type": "text", "text": "ok"}],
			"stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 1}
		}`))
	}))
	defer srv.Close()

	zero := 0.0
	m, err := NewAnthropic(Options{APIKey: "sk-ant-test", BaseURL: srv.URL, Model: "claude", Temperature: &zero})
	require.NoError(t, err)

	_, err = m.Complete(context.Background(), "system prompt", "question")
	require.NoError(t, err)
	require.Contains(t, got, "temperature")
	assert.InDelta(t, 0.0, got["temperature"], 1e-9)
}

func TestAnthropic_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude",
			"content": [{"type": "text", "text": "Here are "}, {"type": "text", "text": "two courses."}],
			"stop_reason": "end_turn", "usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	m, err := NewAnthropic(Options{APIKey: "sk-ant-test", BaseURL: srv.URL, Model: "claude"})
	require.NoError(t, err)

	text, err := m.Complete(context.Background(), "system prompt", "question")
	require.NoError(t, err)
	assert.Equal(t, "Here are two courses.", text)
	assert.Equal(t, "claude", got["model"])
	assert.NotEmpty(t, got["system"])
}

func TestNew_Validation(t *testing.T) {
	cfg := &config.Config{}
	cfg.Chat.Provider = "llama"
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		cfg.Chat.Provider = provider
		_, err := New(context.Background(), cfg, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig, provider)
	}
}

type stubModel struct {
	text string
	err  error
}

func (s stubModel) Complete(context.Context, string, string) (string, error) { return s.text, s.err }
func (s stubModel) Name() string                                            { return "stub" }

func TestInstrument(t *testing.T) {
	tel := telemetry.NewTestTelemetry()

	ok, err := Instrument(stubModel{text: "hi"}, tel.MeterProvider())
	require.NoError(t, err)
	text, err := ok.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)

	failing, err := Instrument(stubModel{err: errors.New("overloaded")}, tel.MeterProvider())
	require.NoError(t, err)
	_, err = failing.Complete(context.Background(), "s", "u")
	require.Error(t, err)

	names := tel.MetricNames(t)
	assert.Contains(t, names, "sitin.chat.duration_seconds")
	assert.Contains(t, names, "sitin.chat.errors_total")
}
