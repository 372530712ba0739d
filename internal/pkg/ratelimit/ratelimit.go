package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a swappable rate-limit abstraction keyed by client identity.
// Allow reports whether the caller may proceed and, when denied, when the
// window resets.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, resetAt time.Time, err error)
}

// RedisLimiter is a fixed-window counter limiter backed by Redis, shared
// across all app instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Time, error) {
	counterKey := fmt.Sprintf("%s:%s", l.prefix, key)

	n, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	if n == 1 {
		// First hit opens the window.
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil {
			return false, time.Time{}, err
		}
	}

	ttl, err := l.client.TTL(ctx, counterKey).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	resetAt := time.Now().Add(ttl)

	return n <= l.limit, resetAt, nil
}

// MemoryLimiter is an in-process fixed-window limiter for tests and
// single-instance development setups.
type MemoryLimiter struct {
	mu     sync.Mutex
	counts map[string]*windowCount
	limit  int64
	window time.Duration
	now    func() time.Time
}

type windowCount struct {
	n       int64
	resetAt time.Time
}

func NewMemoryLimiter(limit int64, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counts: make(map[string]*windowCount),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	wc, ok := l.counts[key]
	if !ok || now.After(wc.resetAt) {
		wc = &windowCount{resetAt: now.Add(l.window)}
		l.counts[key] = wc
	}
	wc.n++

	return wc.n <= l.limit, wc.resetAt, nil
}
