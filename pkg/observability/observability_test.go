package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/editvec/pkg/observability"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "editvec", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, observability.ParseLevel(tt.in), tt.in)
	}
}

func TestTracingHandler_InjectsSpanContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "editvec", "ci", observability.ModeBatch))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "pair done")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "0102030405060708", record["span_id"])
	assert.Equal(t, "editvec", record["service"])
	assert.Equal(t, "ci", record["env"])
	assert.Equal(t, "batch", record["mode"])
}

func TestNewLogger_TextWithoutSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	logger := observability.NewLogger(cfg, &buf)

	logger.Debug("hidden")
	logger.Info("shown", "hunks", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "hunks=3")
	assert.Contains(t, out, "service=editvec")
	assert.NotContains(t, out, "trace_id")
	assert.NotContains(t, out, "env=")
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true

	providers, err := observability.Init(context.Background(), cfg, &buf)
	require.NoError(t, err)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Logger)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	providers.Logger.Info("ready")
	assert.Contains(t, buf.String(), `"msg":"ready"`)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t,
		map[string]string{"authorization": "Bearer x", "team": "vec"},
		observability.ParseOTLPHeaders("authorization=Bearer x, team=vec,bad"),
	)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	data, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, m.Name)

	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}

	return total
}

func TestFeatureMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	fm, err := observability.NewFeatureMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	fm.RecordPair(ctx, "go", 2, 1, 30*time.Millisecond)
	fm.RecordPair(ctx, "rust", 3, 0, time.Millisecond)
	fm.RecordChanges(ctx, map[string]int{"Added": 4, "Deleted": 1})
	fm.RecordFailure(ctx, "go")

	got := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, got["editvec.pairs.total"]))
	assert.Equal(t, int64(5), sumOf(t, got["editvec.hunks.total"]))
	assert.Equal(t, int64(1), sumOf(t, got["editvec.resolve.misses.total"]))
	assert.Equal(t, int64(5), sumOf(t, got["editvec.records.total"]))
	assert.Equal(t, int64(1), sumOf(t, got["editvec.pairs.failed.total"]))
	assert.Contains(t, got, "editvec.pair.duration.seconds")
}

func TestFeatureMetrics_NilIsSafe(t *testing.T) {
	t.Parallel()

	var fm *observability.FeatureMetrics

	assert.NotPanics(t, func() {
		fm.RecordPair(context.Background(), "go", 1, 1, time.Second)
		fm.RecordChanges(context.Background(), map[string]int{"Added": 1})
		fm.RecordFailure(context.Background(), "go")
	})
}
