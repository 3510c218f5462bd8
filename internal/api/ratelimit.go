package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/apperror"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements a sliding window rate limiter using Redis.
type RedisRateLimiter struct {
	client *redis.Client
	rate   int
	window time.Duration
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, rate int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		rate:   rate,
		window: window,
		prefix: "mediaswap:ratelimit:",
	}
}

// Allow records a request for key and reports whether it is within the limit.
// Redis errors fail open.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.client == nil {
		return true
	}

	now := time.Now().UnixNano()
	windowStart := now - int64(rl.window)
	redisKey := rl.prefix + key

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now), Member: now})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.FromContext(ctx).Warn("rate limiter unavailable", "error", err)
		return true
	}

	return countCmd.Val() <= int64(rl.rate)
}

// MemoryRateLimiter is a per-process sliding window limiter used when Redis
// is not configured.
type MemoryRateLimiter struct {
	rate   int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryRateLimiter(rate int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		rate:   rate,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.rate <= 0 {
		return false
	}

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.hits[key][:0]
	for _, t := range rl.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.rate {
		rl.hits[key] = kept
		return false
	}
	rl.hits[key] = append(kept, now)
	return true
}

// RateLimit rejects requests over the limit with 429, keyed by client address.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), clientKey(r)) {
				metrics.RecordRateLimitHit()
				apperror.WriteJSON(w, r, "", apperror.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
