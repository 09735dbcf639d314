package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// Cache TTLs in seconds.
const (
	ttlActiveMinyanim = 60
	ttlNearby         = 300
	ttlSingle         = 600
)

// readThrough returns the cached value under key or loads and stores it.
// A nil cache always loads. Cache failures never fail the call.
func readThrough[T any](ctx context.Context, cache ports.CacheService, op, key string, ttl int, load func() (T, error)) (T, error) {
	if cache != nil {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				metrics.CacheHits.WithLabelValues(op).Inc()
				return v, nil
			}
		}
		metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if cache != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, ttl)
		}
	}
	return v, nil
}
