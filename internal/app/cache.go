package service

import (
	"context"
	"errors"

	"github.com/okian/marquee/internal/adapters/repository"
	"github.com/okian/marquee/internal/domain/poster"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

// PosterCache adapts a repository.Store to poster.Cache. Store failures
// are logged and treated as misses.
type PosterCache struct {
	store  repository.Store
	driver string
	logger logger.Logger
}

var _ poster.Cache = (*PosterCache)(nil)

// NewPosterCache wraps store; driver names the backend in stats.
func NewPosterCache(store repository.Store, driver string, l logger.Logger) *PosterCache {
	if l == nil {
		l = logger.Get().Named("poster-cache")
	}
	return &PosterCache{store: store, driver: driver, logger: l}
}

// Lookup implements poster.Cache.
func (c *PosterCache) Lookup(ctx context.Context, key string) (string, bool) {
	e, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		metrics.RecordPosterCache("hit")
		return e.URL, true
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordPosterCache("miss")
	default:
		metrics.RecordPosterCache("error")
		c.logger.Warn(ctx, "poster cache read failed", logger.String("key", key), logger.Error(err))
	}
	return "", false
}

// Remember implements poster.Cache.
func (c *PosterCache) Remember(ctx context.Context, key, url string, tier poster.Tier) {
	if err := c.store.Put(ctx, repository.Entry{Key: key, URL: url, Tier: tier.String()}); err != nil {
		metrics.RecordPosterCache("error")
		c.logger.Warn(ctx, "poster cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// Driver names the backing store.
func (c *PosterCache) Driver() string { return c.driver }

// Size returns the number of cached posters, zero if the store cannot say.
func (c *PosterCache) Size(ctx context.Context) int64 {
	n, err := c.store.Count(ctx)
	if err != nil {
		c.logger.Warn(ctx, "poster cache count failed", logger.Error(err))
		return 0
	}
	return n
}
