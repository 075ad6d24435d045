package vectorindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
)

const qdrantMaxMessageSize = 50 * 1024 * 1024

// QdrantConfig configures the Qdrant gRPC backend.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// Validate checks required fields.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: qdrant host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid qdrant port %d", ErrInvalidConfig, c.Port)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: qdrant collection required", ErrInvalidConfig)
	}
	return nil
}

// Qdrant is an Index backed by a Qdrant collection. The collection is
// created on first upsert with cosine distance and the batch's dimension.
type Qdrant struct {
	client     *qdrant.Client
	collection string

	mu      sync.Mutex
	ensured bool
}

// NewQdrant dials Qdrant over gRPC.
func NewQdrant(cfg QdrantConfig) (*Qdrant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(qdrantMaxMessageSize),
				grpc.MaxCallSendMsgSize(qdrantMaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}
	return &Qdrant{client: client, collection: cfg.Collection}, nil
}

// Query searches the collection with the filter rendered as must-conditions.
func (q *Qdrant) Query(ctx context.Context, vector []float32, k int, f Filter) ([]Match, error) {
	ctx, span := tracer.Start(ctx, "Qdrant.Query")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", q.collection),
		attribute.Int("top_k", k),
	)

	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector: %w", ErrEmptyInput)
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         qdrantFilter(f),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", q.collection, err)
	}

	matches := make([]Match, len(points))
	for i, p := range points {
		raw := make(map[string]any, len(p.Payload))
		for key, v := range p.Payload {
			raw[key] = fromQdrantValue(v)
		}
		matches[i] = Match{
			ID:       asString(raw["id"]),
			Score:    p.Score,
			Metadata: MetadataFromMap(raw),
		}
	}
	span.SetAttributes(attribute.Int("results_count", len(matches)))
	return matches, nil
}

// Upsert writes records as points. Non-UUID IDs are mapped to a stable
// name-based UUID and kept in the "id" payload field.
func (q *Qdrant) Upsert(ctx context.Context, records []Record) error {
	ctx, span := tracer.Start(ctx, "Qdrant.Upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("record_count", len(records)))

	if len(records) == 0 {
		return fmt.Errorf("upsert: %w", ErrEmptyInput)
	}
	if err := q.ensureCollection(ctx, len(records[0].Values)); err != nil {
		span.RecordError(err)
		return err
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload := make(map[string]*qdrant.Value)
		for key, v := range r.Metadata.Map() {
			payload[key] = toQdrantValue(v)
		}
		payload["id"] = toQdrantValue(r.ID)
		if r.Content != "" {
			payload["text"] = toQdrantValue(r.Content)
		}

		pointID := r.ID
		if _, err := uuid.Parse(pointID); err != nil {
			pointID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(r.ID)).String()
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID),
			Vectors: qdrant.NewVectors(r.Values...),
			Payload: payload,
		}
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting to collection %s: %w", q.collection, err)
	}
	return nil
}

func (q *Qdrant) ensureCollection(ctx context.Context, dim int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ensured {
		return nil
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", q.collection, err)
	}
	if !exists {
		err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", q.collection, err)
		}
	}
	q.ensured = true
	return nil
}

// Close closes the gRPC connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

func qdrantFilter(f Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}
	var must []*qdrant.Condition
	if f.Day != "" {
		must = append(must, keywordCondition(KeyExpandedDays, f.Day))
	}
	if f.TimeOfDay != "" {
		must = append(must, keywordCondition(KeyTimeOfDay, f.TimeOfDay))
	}
	if f.EndBefore != nil {
		must = append(must, rangeCondition(KeyTimeEnd, &qdrant.Range{Lte: floatPtr(*f.EndBefore)}))
	}
	if f.StartAfter != nil {
		must = append(must, rangeCondition(KeyTimeStart, &qdrant.Range{Gte: floatPtr(*f.StartAfter)}))
	}
	if f.MinSeats != nil || f.MaxSeats != nil {
		r := &qdrant.Range{}
		if f.MinSeats != nil {
			r.Gte = floatPtr(*f.MinSeats)
		}
		if f.MaxSeats != nil {
			r.Lte = floatPtr(*f.MaxSeats)
		}
		must = append(must, rangeCondition(KeySeatLimit, r))
	}
	return &qdrant.Filter{Must: must}
}

// keywordCondition matches a keyword field, or any element of a keyword
// array field.
func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func rangeCondition(key string, r *qdrant.Range) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{Key: key, Range: r},
		},
	}
}

func floatPtr(v int) *float64 {
	f := float64(v)
	return &f
}

func toQdrantValue(v any) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	case []string:
		items := make([]*qdrant.Value, len(val))
		for i, s := range val {
			items[i] = toQdrantValue(s)
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: items}}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprint(val)}}
	}
}

func fromQdrantValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_ListValue:
		items := make([]any, len(val.ListValue.GetValues()))
		for i, item := range val.ListValue.GetValues() {
			items[i] = fromQdrantValue(item)
		}
		return items
	default:
		return nil
	}
}

var _ Index = (*Qdrant)(nil)
