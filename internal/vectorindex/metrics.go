package vectorindex

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryDuration tracks query latency by backend.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitin",
			Subsystem: "vectorindex",
			Name:      "query_duration_seconds",
			Help:      "Duration of vector index queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// QueryResults tracks how many matches each query returned.
	QueryResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitin",
			Subsystem: "vectorindex",
			Name:      "query_results",
			Help:      "Number of matches returned per query",
			Buckets:   []float64{0, 1, 3, 5, 10, 25},
		},
		[]string{"backend"},
	)

	// OperationErrors counts failed operations.
	// Labels: backend, operation (query, upsert)
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitin",
			Subsystem: "vectorindex",
			Name:      "errors_total",
			Help:      "Total number of failed vector index operations",
		},
		[]string{"backend", "operation"},
	)

	// UpsertedRecords counts records written.
	UpsertedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitin",
			Subsystem: "vectorindex",
			Name:      "upserted_records_total",
			Help:      "Total number of records upserted",
		},
		[]string{"backend"},
	)
)

type instrumented struct {
	Index
	backend string
}

// Instrument wraps idx so every call is recorded under the backend label.
func Instrument(idx Index, backend string) Index {
	return &instrumented{Index: idx, backend: backend}
}

func (i *instrumented) Query(ctx context.Context, vector []float32, k int, f Filter) ([]Match, error) {
	start := time.Now()
	matches, err := i.Index.Query(ctx, vector, k, f)
	QueryDuration.WithLabelValues(i.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(i.backend, "query").Inc()
		return nil, err
	}
	QueryResults.WithLabelValues(i.backend).Observe(float64(len(matches)))
	return matches, nil
}

func (i *instrumented) Upsert(ctx context.Context, records []Record) error {
	if err := i.Index.Upsert(ctx, records); err != nil {
		OperationErrors.WithLabelValues(i.backend, "upsert").Inc()
		return err
	}
	UpsertedRecords.WithLabelValues(i.backend).Add(float64(len(records)))
	return nil
}
