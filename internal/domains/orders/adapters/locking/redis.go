package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/Apurer/go-procurement-server/internal/domains/orders/ports"
)

const (
	defaultTTL        = 30 * time.Second
	defaultRetryDelay = 100 * time.Millisecond
	defaultRetries    = 50
	keyPrefix         = "lock:order:"
)

var _ ports.OrderLocker = (*Redis)(nil)

// Redis serialises work per order across processes with a redislock lease.
type Redis struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff redislock.RetryStrategy
	logger  *slog.Logger
}

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithRetry(delay time.Duration, attempts int) RedisOption {
	return func(r *Redis) {
		r.backoff = redislock.LimitRetry(redislock.LinearBackoff(delay), attempts)
	}
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  redislock.New(client),
		ttl:     defaultTTL,
		backoff: redislock.LimitRetry(redislock.LinearBackoff(defaultRetryDelay), defaultRetries),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, orderID int64) (func(), error) {
	key := fmt.Sprintf("%s%d", keyPrefix, orderID)
	lock, err := r.client.Obtain(ctx, key, r.ttl, &redislock.Options{RetryStrategy: r.backoff})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: order %d", ports.ErrLockNotObtained, orderID)
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// the caller's context may already be cancelled
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.Warn("order lock release failed", slog.Int64("order.id", orderID), slog.String("error", err.Error()))
		}
	}, nil
}
