package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits   = "tilth.cache.hits"
	metricCacheMisses = "tilth.cache.misses"

	attrCache = "cache"

	cacheOutline = "outline"
	cacheBloom   = "bloom"
)

// CacheStatsProvider reports cumulative hit/miss counts for a single cache.
// The outline cache and the per-file bloom filter cache both implement it.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics registers observable gauges reporting outline and
// bloom cache hit/miss counts, sampled on collection rather than pushed on
// every access. Either provider may be nil, in which case it contributes
// no data points.
func RegisterCacheMetrics(mt metric.Meter, outline, bloom CacheStatsProvider) error {
	hits, err := mt.Int64ObservableGauge(metricCacheHits,
		metric.WithDescription("Cumulative cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHits, err)
	}

	misses, err := mt.Int64ObservableGauge(metricCacheMisses,
		metric.WithDescription("Cumulative cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}

	callback := func(_ context.Context, o metric.Observer) error {
		if outline != nil {
			attrs := metric.WithAttributes(attribute.String(attrCache, cacheOutline))
			o.ObserveInt64(hits, outline.CacheHits(), attrs)
			o.ObserveInt64(misses, outline.CacheMisses(), attrs)
		}

		if bloom != nil {
			attrs := metric.WithAttributes(attribute.String(attrCache, cacheBloom))
			o.ObserveInt64(hits, bloom.CacheHits(), attrs)
			o.ObserveInt64(misses, bloom.CacheMisses(), attrs)
		}

		return nil
	}

	if _, err := mt.RegisterCallback(callback, hits, misses); err != nil {
		return fmt.Errorf("register cache metrics callback: %w", err)
	}

	return nil
}
