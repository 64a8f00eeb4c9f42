package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Connect creates a client for addr and verifies it answers PING.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 100,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ConnectOrNil returns nil with a no-op cleanup when addr is empty or unreachable, so callers
// can fall back to in-process coordination.
func ConnectOrNil(ctx context.Context, logger *slog.Logger, addr, password string, db int) (*goredis.Client, func()) {
	if strings.TrimSpace(addr) == "" {
		if logger != nil {
			logger.Warn("REDIS_ADDRESS not set, falling back to in-process order locks")
		}
		return nil, func() {}
	}
	client, err := Connect(ctx, addr, password, db)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to connect to redis, falling back to in-process order locks",
				slog.String("addr", addr), slog.String("error", err.Error()))
		}
		return nil, func() {}
	}
	if logger != nil {
		logger.Info("redis connection established", slog.String("addr", addr))
	}
	return client, func() { _ = client.Close() }
}
