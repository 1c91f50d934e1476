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
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pityka/tilth/pkg/observability"
)

// acceptanceSpanCount is the expected number of spans in the acceptance test
// (root + search + read).
const acceptanceSpanCount = 3

// acceptanceMatchCount is the simulated match count used in log assertions.
const acceptanceMatchCount = 42

// TestAcceptance_EndToEnd verifies all three observability signals (traces,
// metrics, structured logs with trace context) work together across a
// simulated tilth_search followed by tilth_read call.
func TestAcceptance_EndToEnd(t *testing.T) {
	t.Parallel()

	// Setup: in-memory trace exporter.
	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("tilth")

	// Setup: in-memory metric reader.
	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	meter := mp.Meter("tilth")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	outline := &stubCacheStats{hits: 100, misses: 10}
	bloom := &stubCacheStats{hits: 50, misses: 5}

	err = observability.RegisterCacheMetrics(meter, outline, bloom)
	require.NoError(t, err)

	// Setup: structured logger with trace context.
	var logBuf bytes.Buffer

	innerHandler := slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	tracingHandler := observability.NewTracingHandler(innerHandler, "tilth", "test", observability.ModeMCP)
	logger := slog.New(tracingHandler)

	// Simulate a request: root span, a search child span, a read child span.
	ctx, rootSpan := tracer.Start(context.Background(), "tilth.request")

	_, searchSpan := tracer.Start(ctx, "tilth_search")
	searchSpan.End()

	_, readSpan := tracer.Start(ctx, "tilth_read")
	readSpan.End()

	// Record metrics within the trace context.
	red.RecordRequest(ctx, "tilth_search", "ok", time.Second)

	// Emit a log line within the trace context.
	logger.InfoContext(ctx, "search.complete", "matches", acceptanceMatchCount)

	rootSpan.End()

	// Assert: Traces.
	spans := spanExporter.GetSpans()
	require.Len(t, spans, acceptanceSpanCount, "expected root + search + read spans")

	spanNames := make(map[string]bool, len(spans))
	for _, s := range spans {
		spanNames[s.Name] = true
	}

	assert.True(t, spanNames["tilth.request"], "root span should exist")
	assert.True(t, spanNames["tilth_search"], "search span should exist")
	assert.True(t, spanNames["tilth_read"], "read span should exist")

	// All spans share the same trace ID.
	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans[1:] {
		assert.Equal(t, traceID, s.SpanContext.TraceID(),
			"span %q should share trace ID", s.Name)
	}

	// Assert: Metrics.
	var rm metricdata.ResourceMetrics

	err = metricReader.Collect(ctx, &rm)
	require.NoError(t, err)

	reqTotal := findMetric(rm, "tilth.requests.total")
	require.NotNil(t, reqTotal, "request counter should be recorded")

	reqDuration := findMetric(rm, "tilth.request.duration.seconds")
	require.NotNil(t, reqDuration, "duration histogram should be recorded")

	// Assert: Cache metrics.
	cacheHits := findMetric(rm, "tilth.cache.hits")
	require.NotNil(t, cacheHits, "cache hits gauge should be recorded")

	cacheMisses := findMetric(rm, "tilth.cache.misses")
	require.NotNil(t, cacheMisses, "cache misses gauge should be recorded")

	// Assert: Logs contain trace_id.
	var logRecord map[string]any

	err = json.Unmarshal(logBuf.Bytes(), &logRecord)
	require.NoError(t, err)

	assert.Equal(t, traceID.String(), logRecord["trace_id"],
		"log line should contain the active trace_id")
	assert.Contains(t, logRecord, "span_id",
		"log line should contain span_id")
	assert.Equal(t, "tilth", logRecord["service"],
		"log line should contain service name")

	matches, ok := logRecord["matches"].(float64)
	require.True(t, ok, "matches should be a number")
	assert.InDelta(t, acceptanceMatchCount, matches, 0,
		"log line should contain custom attributes")
}
