package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/pityka/tilth/pkg/observability"
)

// stubCacheStats implements observability.CacheStatsProvider for testing.
type stubCacheStats struct {
	hits   int64
	misses int64
}

func (s *stubCacheStats) CacheHits() int64   { return s.hits }
func (s *stubCacheStats) CacheMisses() int64 { return s.misses }

func TestCacheMetrics_Exported(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	outline := &stubCacheStats{hits: 10, misses: 3}
	bloom := &stubCacheStats{hits: 7, misses: 5}

	err := observability.RegisterCacheMetrics(meter, outline, bloom)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics

	err = reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	hits := findMetric(rm, "tilth.cache.hits")
	require.NotNil(t, hits, "tilth.cache.hits metric not found")

	misses := findMetric(rm, "tilth.cache.misses")
	require.NotNil(t, misses, "tilth.cache.misses metric not found")

	// Verify outline and bloom data points are present.
	hitsGauge, ok := hits.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected Gauge data type for hits")

	hitsMap := dataPointsByAttr(hitsGauge.DataPoints)
	assert.Equal(t, int64(10), hitsMap["outline"])
	assert.Equal(t, int64(7), hitsMap["bloom"])

	missesGauge, ok := misses.Data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected Gauge data type for misses")

	missesMap := dataPointsByAttr(missesGauge.DataPoints)
	assert.Equal(t, int64(3), missesMap["outline"])
	assert.Equal(t, int64(5), missesMap["bloom"])
}

func TestCacheMetrics_NilProviders(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	// Should not error with nil providers.
	err := observability.RegisterCacheMetrics(meter, nil, nil)
	require.NoError(t, err)
}

// dataPointsByAttr extracts data points keyed by the "cache" attribute value.
func dataPointsByAttr(dps []metricdata.DataPoint[int64]) map[string]int64 {
	m := make(map[string]int64, len(dps))

	for _, dp := range dps {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == "cache" {
				m[attr.Value.AsString()] = dp.Value
			}
		}
	}

	return m
}
