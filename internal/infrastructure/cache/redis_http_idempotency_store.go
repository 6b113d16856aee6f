package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CapturedResponse is a replayed HTTP response captured from the first
// execution of an idempotent POST (spec.md §4.3).
type CapturedResponse struct {
	StatusCode int               `json:"status_code"`
	Body       []byte            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// RedisHTTPIdempotencyStore realizes spec.md §4.3's HTTP-level idempotency
// contract: key idem:{tenant}:{key} holds the captured status+body with a
// 24h TTL, and a short-lived lock key idem:lock:{tenant}:{key} (SETNX,
// 30s TTL) serializes concurrent retries of the same key so only one
// executes the handler while the others wait or are told to retry.
// This is distinct from shared.IdempotencyStore, which dedupes inbound
// domain events rather than replaying a captured HTTP response.
type RedisHTTPIdempotencyStore struct {
	client *redis.Client
}

// NewRedisHTTPIdempotencyStore creates a new store over an existing client.
func NewRedisHTTPIdempotencyStore(client *redis.Client) *RedisHTTPIdempotencyStore {
	return &RedisHTTPIdempotencyStore{client: client}
}

func responseKey(tenantID, key string) string {
	return fmt.Sprintf("idem:%s:%s", tenantID, key)
}

func lockKey(tenantID, key string) string {
	return fmt.Sprintf("idem:lock:%s:%s", tenantID, key)
}

// Get returns the captured response for (tenantID, key), if one exists.
func (s *RedisHTTPIdempotencyStore) Get(ctx context.Context, tenantID, key string) (*CapturedResponse, bool, error) {
	raw, err := s.client.Get(ctx, responseKey(tenantID, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var resp CapturedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

// AcquireLock attempts to take the short-lived processing lock for
// (tenantID, key). Returns true if this caller now owns the lock and
// should execute the handler; false means another request is already
// processing this key.
func (s *RedisHTTPIdempotencyStore) AcquireLock(ctx context.Context, tenantID, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, lockKey(tenantID, key), "1", ttl).Result()
}

// ReleaseLock releases the processing lock early, e.g. after the handler
// fails and the caller wants an immediate retry rather than waiting out
// the full lock TTL.
func (s *RedisHTTPIdempotencyStore) ReleaseLock(ctx context.Context, tenantID, key string) error {
	return s.client.Del(ctx, lockKey(tenantID, key)).Err()
}

// Put captures a response for replay, TTL 24h.
func (s *RedisHTTPIdempotencyStore) Put(ctx context.Context, tenantID, key string, resp CapturedResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, responseKey(tenantID, key), raw, ttl).Err()
}
