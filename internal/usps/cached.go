package usps

import (
	"context"
	"log/slog"

	"github.com/zippuff/zippuff/internal/model"
)

// ResultCache is the storage a CachedService consults before hitting
// the network. It is satisfied by cache.LookupCache.
type ResultCache interface {
	// Get returns the cached result for a query key, or nil on a miss.
	Get(ctx context.Context, query string) (*model.LookupResult, error)

	// Put stores a result under its query key.
	Put(ctx context.Context, res *model.LookupResult) error
}

// CachedService decorates a Service with read-through caching. A fresh
// cached row is served without a network call; API results are stored
// on the way out. Cache failures are logged and otherwise ignored, so a
// broken cache degrades to plain API lookups instead of failing them.
type CachedService struct {
	svc    Service
	cache  ResultCache
	logger *slog.Logger
}

// NewCachedService wraps svc with the given cache. A nil logger falls
// back to slog.Default.
func NewCachedService(svc Service, c ResultCache, logger *slog.Logger) *CachedService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedService{svc: svc, cache: c, logger: logger}
}

// CityState resolves a ZIP code, consulting the cache first.
func (c *CachedService) CityState(ctx context.Context, zip model.ZIPCode) (*model.LookupResult, error) {
	if zip.IsZero() {
		return nil, model.ErrEmptyZIPCode
	}
	return c.resolve(ctx, model.ZIPQuery(zip), func() (*model.LookupResult, error) {
		return c.svc.CityState(ctx, zip)
	})
}

// ZIPCode resolves a city/state, consulting the cache first. Lookups
// refined with a street address bypass the cache: the query key only
// covers city and state, so a cached row may not describe the exact
// delivery point.
func (c *CachedService) ZIPCode(ctx context.Context, q AddressQuery) (*model.LookupResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.StreetAddress != "" {
		return c.svc.ZIPCode(ctx, q)
	}
	return c.resolve(ctx, model.CityStateQuery(q.City, q.State), func() (*model.LookupResult, error) {
		return c.svc.ZIPCode(ctx, q)
	})
}

// Status returns the underlying client's status.
func (c *CachedService) Status() Status {
	return c.svc.Status()
}

// resolve serves from cache when possible and falls back to fn.
func (c *CachedService) resolve(ctx context.Context, query string, fn func() (*model.LookupResult, error)) (*model.LookupResult, error) {
	if hit, err := c.cache.Get(ctx, query); err != nil {
		c.logger.Warn("cache read failed", "query", query, "error", err)
	} else if hit != nil {
		c.logger.Debug("cache hit", "query", query)
		return hit, nil
	}

	res, err := fn()
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, res); err != nil {
		c.logger.Warn("cache write failed", "query", query, "error", err)
	}

	return res, nil
}
