package redis

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ahmethakanbesel/currency-api/internal/cache"
)

// Open connects to redis and returns a cache handle. The cache is an
// optimization, never a correctness dependency: a connection failure is logged
// and a nil cache is returned, and callers degrade to store-only reads. There
// are no reconnection retries inside request paths.
func Open(addr string, db int) cache.Cache {
	if addr == "" {
		return nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, continuing without cache", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("connected to redis", "addr", addr, "db", db)
	return cache.NewRedisCache(client)
}
