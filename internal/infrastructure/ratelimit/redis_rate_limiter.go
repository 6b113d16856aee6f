package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tier is a rate-limit privilege tier for an authenticated identity
// (spec.md §4.4), distributed rather than in-process so limits hold across
// every instance behind the load balancer.
type Tier string

const (
	TierPrivileged Tier = "privileged" // admin, cfo, finance_head, procurement_lead
	TierInternal   Tier = "internal"   // procurement, manager, finance
	TierVendor     Tier = "vendor"     // vendor role or unauthenticated
)

// Category is the path category a request falls under.
type Category string

const (
	CategoryAuth    Category = "auth"
	CategoryUpload  Category = "upload"
	CategoryDefault Category = "default"
)

type limit struct {
	count  int64
	window time.Duration
}

var tierLimits = map[Tier]map[Category]limit{
	TierPrivileged: {
		CategoryAuth:    {20, time.Minute},
		CategoryUpload:  {20, time.Minute},
		CategoryDefault: {500, time.Minute},
	},
	TierInternal: {
		CategoryAuth:    {15, time.Minute},
		CategoryUpload:  {10, time.Minute},
		CategoryDefault: {200, time.Minute},
	},
	TierVendor: {
		CategoryAuth:    {10, time.Minute},
		CategoryUpload:  {5, time.Minute},
		CategoryDefault: {60, time.Minute},
	},
}

// Limit returns the (count, window) pair for a tier/category combination,
// falling back to the vendor/default tier for anything unrecognized.
func Limit(tier Tier, category Category) (int64, time.Duration) {
	byCategory, ok := tierLimits[tier]
	if !ok {
		byCategory = tierLimits[TierVendor]
	}
	l, ok := byCategory[category]
	if !ok {
		l = byCategory[CategoryDefault]
	}
	return l.count, l.window
}

// RedisRateLimiter implements a distributed fixed-window counter via
// INCR+EXPIRE, keyed (tier, identity, category) per spec.md §4.4. Unlike a
// token bucket this resets sharply at the window boundary rather than
// leaking continuously, which matches the Redis INCR+EXPIRE realization
// named by the spec over the teacher's in-memory token-bucket limiter.
type RedisRateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// RedisRateLimiterConfig holds Redis connection configuration.
type RedisRateLimiterConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter.
func NewRedisRateLimiter(cfg RedisRateLimiterConfig) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for rate limiter: %w", err)
	}

	return &RedisRateLimiter{client: client, keyPrefix: "rl:"}, nil
}

// NewRedisRateLimiterWithClient creates a rate limiter with an existing client.
func NewRedisRateLimiterWithClient(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, keyPrefix: "rl:"}
}

// Result carries the outcome of an Allow check.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Window    time.Duration
}

// Allow increments the window counter for (tier, identity, category) and
// reports whether the request is within the tier's limit. Cache failures
// fail open: the request is allowed and the error is returned for the
// caller to log, per spec.md §4.4's "cache failures fail open" clause.
func (rl *RedisRateLimiter) Allow(ctx context.Context, tier Tier, identity string, category Category) (Result, error) {
	count, window := Limit(tier, category)
	key := fmt.Sprintf("%s%s:%s:%s", rl.keyPrefix, tier, identity, category)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{Allowed: true, Limit: count, Window: window}, fmt.Errorf("rate limit cache error: %w", err)
	}

	current := incr.Val()
	remaining := count - current
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   current <= count,
		Limit:     count,
		Remaining: remaining,
		Window:    window,
	}, nil
}

// Close closes the underlying Redis client.
func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}
