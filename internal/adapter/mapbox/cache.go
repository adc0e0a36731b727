package mapbox

import (
	"context"
	"strings"

	"github.com/couchcryptid/disaster-dashboard/internal/cache"
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
)

// CachedLocator wraps a Locator with an in-memory LRU cache.
type CachedLocator struct {
	inner   domain.Locator
	cache   *cache.LRU[domain.LocatorResult]
	metrics *observability.Metrics
}

// NewCachedLocator creates a cache decorator around a locator.
func NewCachedLocator(inner domain.Locator, maxEntries int, metrics *observability.Metrics) *CachedLocator {
	return &CachedLocator{
		inner:   inner,
		cache:   cache.NewLRU[domain.LocatorResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLocator) Locate(ctx context.Context, name, scope string) (domain.LocatorResult, error) {
	key := scope + "|" + strings.ToLower(strings.TrimSpace(name))
	if result, ok := c.cache.Get(key); ok {
		c.metrics.LocatorCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.LocatorCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Locate(ctx, name, scope)
	if err != nil {
		return result, err
	}
	// Only cache found places so transient misses can be retried.
	if result.Found() {
		c.cache.Put(key, result)
	}
	return result, nil
}
