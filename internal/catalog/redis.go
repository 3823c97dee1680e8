package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/playtrack/internal/config"
)

// NewRedis connects the catalog cache. An empty address means no cache and
// returns a nil client, which NewCachedLookup treats as pass-through.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("catalog: connecting to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to Redis", slog.String("addr", cfg.Addr))
	return client, nil
}
