package backend

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/couchcryptid/disaster-dashboard/internal/cache"
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
)

// CachedClient wraps a DataSource with in-memory LRU caches keyed by the
// request payload. Payloads are deterministic, so equal selections share an
// entry.
type CachedClient struct {
	inner     DataSource
	rows      *cache.LRU[[]domain.Row]
	countries *cache.LRU[domain.CountryProfile]
	states    *cache.LRU[domain.StateProfile]
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewCachedClient creates a cache decorator around a data source.
func NewCachedClient(inner DataSource, maxEntries int, metrics *observability.Metrics, logger *slog.Logger) *CachedClient {
	return &CachedClient{
		inner:     inner,
		rows:      cache.NewLRU[[]domain.Row](maxEntries),
		countries: cache.NewLRU[domain.CountryProfile](maxEntries),
		states:    cache.NewLRU[domain.StateProfile](maxEntries),
		metrics:   metrics,
		logger:    logger,
	}
}

func (c *CachedClient) CompareAggregated(ctx context.Context, req query.CompareRequest) ([]domain.Row, error) {
	return cachedRows(c, pathCompare, req, func() ([]domain.Row, error) {
		return c.inner.CompareAggregated(ctx, req)
	})
}

func (c *CachedClient) GlobalStats(ctx context.Context, req query.GlobalStatsRequest) ([]domain.Row, error) {
	return cachedRows(c, pathGlobalStats, req, func() ([]domain.Row, error) {
		return c.inner.GlobalStats(ctx, req)
	})
}

func (c *CachedClient) CountryData(ctx context.Context, req query.CountryRequest) (domain.CountryProfile, error) {
	key, ok := c.key(pathCountryData, req)
	if ok {
		if p, hit := c.countries.Get(key); hit {
			c.record(pathCountryData, "hit")
			return p, nil
		}
		c.record(pathCountryData, "miss")
	}
	p, err := c.inner.CountryData(ctx, req)
	if err != nil {
		return p, err
	}
	// Only cache non-empty results so a profile loaded later can be seen.
	if ok && !p.Empty() {
		c.countries.Put(key, p)
	}
	return p, nil
}

func (c *CachedClient) StateData(ctx context.Context, req query.StateRequest) (domain.StateProfile, error) {
	key, ok := c.key(pathStateData, req)
	if ok {
		if p, hit := c.states.Get(key); hit {
			c.record(pathStateData, "hit")
			return p, nil
		}
		c.record(pathStateData, "miss")
	}
	p, err := c.inner.StateData(ctx, req)
	if err != nil {
		return p, err
	}
	if ok && !p.Empty() {
		c.states.Put(key, p)
	}
	return p, nil
}

// Purge drops every cached response.
func (c *CachedClient) Purge() {
	c.rows.Purge()
	c.countries.Purge()
	c.states.Purge()
	c.logger.Debug("response cache purged")
}

func cachedRows(c *CachedClient, endpoint string, req any, load func() ([]domain.Row, error)) ([]domain.Row, error) {
	key, ok := c.key(endpoint, req)
	if ok {
		if rows, hit := c.rows.Get(key); hit {
			c.record(endpoint, "hit")
			return rows, nil
		}
		c.record(endpoint, "miss")
	}
	rows, err := load()
	if err != nil {
		return rows, err
	}
	if ok && len(rows) > 0 {
		c.rows.Put(key, rows)
	}
	return rows, nil
}

func (c *CachedClient) key(endpoint string, req any) (string, bool) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	return endpoint + "|" + string(b), true
}

func (c *CachedClient) record(endpoint, result string) {
	c.metrics.ResponseCache.WithLabelValues(endpoint, result).Inc()
}
