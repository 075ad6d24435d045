package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig("debug", "console")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	cfg, err = NewConfig("trace", "")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)

	_, err = NewConfig("loud", "json")
	assert.Error(t, err)

	_, err = NewConfig("info", "xml")
	assert.Error(t, err)
}

func TestLogger_ContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithQueryID(ctx, "8b1f6a52-5e37-4b9e-9d1b-3c3f2d0a9e11")
	tl.Info(ctx, "answered", zap.Int("matches", 3))

	tl.AssertLogged(t, zapcore.InfoLevel, "answered")
	tl.AssertField(t, "answered", "request.id", "req-123")
	tl.AssertField(t, "answered", "query.id", "8b1f6a52-5e37-4b9e-9d1b-3c3f2d0a9e11")
	tl.AssertField(t, "answered", "matches", int64(3))
}

func TestLogger_TraceCorrelation(t *testing.T) {
	tl := NewTestLogger()
	tp := trace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	tl.Warn(ctx, "slow upstream")

	entries := tl.FilterMessage("slow upstream").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "trace_id")
	assert.Contains(t, entries[0].ContextMap(), "span_id")
}

func TestWithRequestID_DropsInvalid(t *testing.T) {
	ctx := WithRequestID(context.Background(), "bad id\n")
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestID(context.Background(), "")
	assert.Empty(t, RequestIDFromContext(ctx))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Debug(ctx, "from ctx")
	tl.AssertLogged(t, zapcore.DebugLevel, "from ctx")
}

func TestRedactingEncoder(t *testing.T) {
	cfg := NewDefaultConfig()
	enc, err := NewRedactingEncoder(newEncoder("json"), cfg.Redaction)
	require.NoError(t, err)

	var buf bytes.Buffer
	zl := zap.New(zapcore.NewCore(enc, zapcore.AddSync(&buf), zapcore.DebugLevel))

	zl.With(zap.String("api_key", "pk-with")).Info("fetch",
		zap.String("token", "abc"),
		zap.String("header", "Bearer xyz123"),
		zap.String("note", "key sk-abcdefghijklmnopqrstu used"),
		zap.String("table", "Sections"),
	)

	out := buf.String()
	assert.NotContains(t, out, "pk-with")
	assert.NotContains(t, out, `"abc"`)
	assert.NotContains(t, out, "xyz123")
	assert.NotContains(t, out, "sk-abcdefghijklmnopqrstu")
	assert.Contains(t, out, "Sections")
	assert.Contains(t, out, "[REDACTED]")
}

func TestRedactingEncoder_InvalidPattern(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{"("}})
	assert.Error(t, err)
}

func TestTestLogger_AssertNoSecrets(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "configured", Secret("airtable_key", "patXYZ"))
	tl.AssertNoSecrets(t)
}
