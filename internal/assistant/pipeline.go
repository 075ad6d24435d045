// Package assistant answers free-text course questions by retrieving
// matching courses from the vector index and asking a chat model to
// present them.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/embeddings"
	"github.com/fyrsmithlabs/sitin/internal/llm"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/query"
	"github.com/fyrsmithlabs/sitin/internal/secrets"
	"github.com/fyrsmithlabs/sitin/internal/vectorindex"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/sitin/internal/assistant")

var (
	// ErrEmptyQuery is returned for blank questions.
	ErrEmptyQuery = errors.New("query is required")

	// ErrAnswerFailed wraps the failure of any pipeline step.
	ErrAnswerFailed = errors.New("answer failed")
)

// Defaults for Options.
const (
	DefaultTopK         = 10
	DefaultDisplayCount = 3
)

// Answer is the result of one question.
type Answer struct {
	QueryID string `json:"queryId"`
	Text    string `json:"response"`
	Cards   []Card `json:"cards"`
}

// Answerer is anything that can answer a question.
type Answerer interface {
	Answer(ctx context.Context, q string) (*Answer, error)
}

// Options tunes retrieval.
type Options struct {
	TopK         int
	DisplayCount int

	// Timeout bounds one Answer call. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Pipeline runs extract, embed, filter, query, reorder, render and complete.
type Pipeline struct {
	embedder embeddings.Embedder
	index    vectorindex.Index
	chat     llm.ChatModel
	scrubber secrets.Scrubber
	logger   *logging.Logger
	opts     Options
}

// NewPipeline wires a pipeline. A nil scrubber disables scrubbing and a nil
// logger discards logs.
func NewPipeline(embedder embeddings.Embedder, index vectorindex.Index, chat llm.ChatModel, scrubber secrets.Scrubber, logger *logging.Logger, opts Options) (*Pipeline, error) {
	if embedder == nil || index == nil || chat == nil {
		return nil, errors.New("assistant: embedder, index and chat model are required")
	}
	if scrubber == nil {
		scrubber = secrets.Noop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.DisplayCount <= 0 {
		opts.DisplayCount = DefaultDisplayCount
	}
	return &Pipeline{
		embedder: embedder,
		index:    index,
		chat:     chat,
		scrubber: scrubber,
		logger:   logger.Named("assistant"),
		opts:     opts,
	}, nil
}

// Answer answers q. Any step failure aborts the whole answer.
func (p *Pipeline) Answer(ctx context.Context, q string) (*Answer, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	queryID := uuid.NewString()
	ctx = logging.WithQueryID(ctx, queryID)
	ctx, span := tracer.Start(ctx, "assistant.Answer")
	span.SetAttributes(attribute.String("query.id", queryID))
	defer span.End()

	scrubbed := p.scrubber.Scrub(q)
	if scrubbed.HasFindings() {
		p.logger.Info(ctx, "redacted question", zap.Strings("rules", scrubbed.RuleIDs()))
	}
	q = scrubbed.Scrubbed

	answer, err := p.answer(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer failed")
		return nil, fmt.Errorf("%w: %w", ErrAnswerFailed, err)
	}
	answer.QueryID = queryID
	return answer, nil
}

func (p *Pipeline) answer(ctx context.Context, q string) (*Answer, error) {
	c := query.Extract(q)
	if c.Conflicting() {
		p.logger.Warn(ctx, "time bounds cannot both hold, expect no matches",
			zap.Int("ends_before", *c.Time.Before),
			zap.Int("starts_after", *c.Time.After),
		)
	}
	p.logger.Debug(ctx, "answering", zap.String("query", q))

	vector, err := p.embedder.EmbedQuery(ctx, c.Enrich(q))
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := p.index.Query(ctx, vector, p.opts.TopK, c.Filter())
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	matches = Reorder(matches, c.Order)
	if len(matches) > p.opts.DisplayCount {
		matches = matches[:p.opts.DisplayCount]
	}

	text, err := p.chat.Complete(ctx, SystemPrompt(Blocks(matches)), q)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	cards := make([]Card, len(matches))
	for i, m := range matches {
		cards[i] = CardFromMatch(m)
	}
	p.logger.Info(ctx, "answered", zap.Int("matches", len(matches)), zap.String("model", p.chat.Name()))
	return &Answer{Text: text, Cards: cards}, nil
}

// Reorder sorts matches by seat limit in the requested direction. Equal
// seat limits keep their relevance order.
func Reorder(matches []vectorindex.Match, order query.SizeOrder) []vectorindex.Match {
	switch order {
	case query.SizeOrderDescending:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Metadata.SeatLimit > matches[j].Metadata.SeatLimit
		})
	case query.SizeOrderAscending:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Metadata.SeatLimit < matches[j].Metadata.SeatLimit
		})
	}
	return matches
}
