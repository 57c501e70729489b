package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter keyed by caller. Allow reads the
// current window and Hit counts one event in it. A nil client allows
// everything.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *Limiter) disabled(key string) bool {
	return l == nil || l.client == nil || l.limit <= 0 || key == ""
}

func (l *Limiter) bucket(key string) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, time.Now().Truncate(l.window).Unix())
}

// Allow reports whether key is still under the limit in this window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.disabled(key) {
		return true, nil
	}
	count, err := l.client.Get(ctx, l.bucket(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("rate limit: %w", err)
	}
	return count < int64(l.limit), nil
}

// Hit counts one event for key.
func (l *Limiter) Hit(ctx context.Context, key string) error {
	if l.disabled(key) {
		return nil
	}
	redisKey := l.bucket(key)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}
