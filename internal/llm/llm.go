// Package llm sends a system prompt and a question to a chat completion
// model and returns the reply text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/sitin/internal/config"
)

var (
	// ErrInvalidConfig is returned for unknown providers or missing keys.
	ErrInvalidConfig = errors.New("invalid chat config")

	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty chat response")
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/sitin/internal/llm")

// Defaults per provider.
const (
	DefaultOpenAIModel    = "gpt-4-turbo-preview"
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 2048
)

// ChatModel completes one system+user exchange.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Options are shared by every provider.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	// Temperature is DefaultTemperature when nil; zero is a valid setting.
	Temperature *float64
	MaxTokens   int
}

func (o Options) withDefaults(model string) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.Temperature == nil {
		t := DefaultTemperature
		o.Temperature = &t
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// New creates the chat model selected by chat.provider.
func New(ctx context.Context, cfg *config.Config, mp metric.MeterProvider) (ChatModel, error) {
	opts := Options{
		Model:       cfg.Chat.Model,
		BaseURL:     cfg.Chat.BaseURL,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}

	var (
		m   ChatModel
		err error
	)
	switch cfg.Chat.Provider {
	case "openai", "":
		opts.APIKey = cfg.OpenAI.APIKey.Value()
		m, err = NewOpenAI(opts)
	case "anthropic":
		opts.APIKey = cfg.Anthropic.APIKey.Value()
		m, err = NewAnthropic(opts)
	case "gemini":
		opts.APIKey = cfg.Gemini.APIKey.Value()
		m, err = NewGemini(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (supported: openai, anthropic, gemini)", ErrInvalidConfig, cfg.Chat.Provider)
	}
	if err != nil {
		return nil, err
	}
	if mp == nil {
		return m, nil
	}
	return Instrument(m, mp)
}

type instrumented struct {
	ChatModel
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// Instrument wraps m with a span and duration/failure instruments.
func Instrument(m ChatModel, mp metric.MeterProvider) (ChatModel, error) {
	meter := mp.Meter("github.com/fyrsmithlabs/sitin/internal/llm")
	duration, err := meter.Float64Histogram(
		"sitin.chat.duration_seconds",
		metric.WithDescription("Duration of chat completion calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 20, 30, 60),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	failures, err := meter.Int64Counter(
		"sitin.chat.errors_total",
		metric.WithDescription("Failed chat completion calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating errors counter: %w", err)
	}
	return &instrumented{ChatModel: m, duration: duration, failures: failures}, nil
}

func (i *instrumented) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", i.Name()))

	attrs := metric.WithAttributes(attribute.String("model", i.Name()))
	start := time.Now()
	text, err := i.ChatModel.Complete(ctx, system, user)
	i.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		i.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	return text, nil
}
