// Package placecache caches nearby-search responses in front of a places
// source, keyed by the H3 cell of the request coordinate.
package placecache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/moodscout/moodscout/internal/cache"
	"github.com/moodscout/moodscout/internal/cache/keys"
	"github.com/moodscout/moodscout/internal/core/model"
	"github.com/moodscout/moodscout/internal/decision"
	"github.com/moodscout/moodscout/internal/geo"
	"github.com/moodscout/moodscout/internal/hotness"
	"github.com/moodscout/moodscout/internal/source"
)

// Cached wraps a places source with a read-through cache. Cache failures
// degrade to the inner source; they never fail a request.
type Cached struct {
	logger    *slog.Logger
	inner     source.PlacesSource
	store     cache.Interface
	res       int
	ttl       time.Duration
	opTimeout time.Duration

	demand hotness.Interface
	policy decision.TTLPolicy
}

var _ source.PlacesSource = (*Cached)(nil)

type Option func(*Cached)

// WithDemandTracking records every keyed search against its cell and lets
// the policy stretch the TTL for cells under heavy demand.
func WithDemandTracking(demand hotness.Interface, policy decision.TTLPolicy) Option {
	return func(c *Cached) {
		c.demand = demand
		c.policy = policy
	}
}

func New(logger *slog.Logger, inner source.PlacesSource, store cache.Interface, res int, ttl, opTimeout time.Duration, opts ...Option) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cached{
		logger:    logger,
		inner:     inner,
		store:     store,
		res:       res,
		ttl:       ttl,
		opTimeout: opTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) NearbyPlaces(ctx context.Context, loc model.Coordinate, activityType string, radiusM int) ([]model.Suggestion, error) {
	cell, err := geo.CellFor(loc, c.res)
	if err != nil {
		// unkeyable request; skip the cache entirely
		return c.inner.NearbyPlaces(ctx, loc, activityType, radiusM)
	}
	key := keys.SearchKey(cell, c.res, activityType, radiusM)
	if c.demand != nil {
		c.demand.Observe(cell)
	}

	if body, ok := c.lookup(ctx, key); ok {
		var cached []model.Suggestion
		if err := json.Unmarshal(body, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("cached search entry corrupt, refetching", "key", key)
	}

	results, err := c.inner.NearbyPlaces(ctx, loc, activityType, radiusM)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(results); err == nil {
		ttl := c.ttl
		if c.policy != nil {
			ttl = c.policy.TTLFor(cell, c.ttl)
		}
		opCtx, cancel := c.withTimeout(ctx)
		defer cancel()
		if err := c.store.Set(opCtx, key, body, ttl); err != nil {
			c.logger.Warn("cache set failed", "key", key, "err", err)
		}
	}
	return results, nil
}

func (c *Cached) lookup(ctx context.Context, key string) ([]byte, bool) {
	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	body, ok, err := c.store.Get(opCtx, key)
	if err != nil {
		c.logger.Warn("cache get failed, falling through to source", "key", key, "err", err)
		return nil, false
	}
	return body, ok && len(body) > 0
}

func (c *Cached) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}
