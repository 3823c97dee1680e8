// Package catalog is the boundary to the external game metadata providers.
//
// Lookup materializes a game by its catalog id (RAWG). Enricher adds the
// live-only extras (IGDB screenshots, storyline) shown on the game page.
// Both report failures as apperror kinds: a missing id is ErrNotFound,
// anything else is ErrCatalogUnavailable.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/playtrack/internal/metrics"
	"github.com/sakif/playtrack/internal/model"
)

// Lookup fetches canonical metadata for an external catalog id. The
// returned Game has no local ID yet.
type Lookup interface {
	FetchGame(ctx context.Context, externalID string) (*model.Game, error)
}

// Enricher fetches optional detail for a game by title.
type Enricher interface {
	Enrich(ctx context.Context, title string) (*model.GameEnrichment, error)
}

// CachedLookup keeps successful lookups in Redis so that repeated
// materialization attempts (for example two users adding the same new game
// at once) cost one upstream call.
type CachedLookup struct {
	next    Lookup
	rdb     *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCachedLookup wraps next. With a nil client it returns next unchanged.
func NewCachedLookup(next Lookup, rdb *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) Lookup {
	if rdb == nil {
		return next
	}
	return &CachedLookup{next: next, rdb: rdb, ttl: ttl, logger: logger, metrics: m}
}

func cacheKey(externalID string) string {
	return fmt.Sprintf("catalog:game:%s", externalID)
}

func (c *CachedLookup) FetchGame(ctx context.Context, externalID string) (*model.Game, error) {
	key := cacheKey(externalID)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var g model.Game
		if json.Unmarshal([]byte(cached), &g) == nil {
			c.metrics.CatalogRequest("cache", "hit")
			return &g, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	c.metrics.CatalogRequest("cache", "miss")

	game, err := c.next.FetchGame(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(game); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return game, nil
}
