package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// OpenAI completes through the OpenAI chat completions API.
type OpenAI struct {
	llm  *openai.LLM
	opts Options
}

// NewOpenAI creates an OpenAI chat model.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key required", ErrInvalidConfig)
	}
	opts = opts.withDefaults(DefaultOpenAIModel)

	clientOpts := []openai.Option{
		openai.WithToken(opts.APIKey),
		openai.WithModel(opts.Model),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &OpenAI{llm: client, opts: opts}, nil
}

// Complete sends the system prompt and user message.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, system),
			llms.TextParts(schema.ChatMessageTypeHuman, user),
		},
		llms.WithTemperature(*o.opts.Temperature),
		llms.WithMaxTokens(o.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// Name returns the model name.
func (o *OpenAI) Name() string { return o.opts.Model }
