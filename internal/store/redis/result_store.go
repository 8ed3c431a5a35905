// Package redis provides the Redis-backed correlation store implementation.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"expenso/internal/domain"
)

// resultKey namespaces correlation store entries in Redis.
func resultKey(correlationKey string) string {
	return fmt.Sprintf("recognition:result:%s", correlationKey)
}

// ResultStore implements port.ResultStore using go-redis/v9. Entries expire
// with a TTL so abandoned correlation keys never accumulate.
type ResultStore struct {
	client *redis.Client
}

// NewResultStore creates a ResultStore from a Redis URL.
func NewResultStore(redisURL string) (*ResultStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &ResultStore{client: redis.NewClient(opts)}, nil
}

// NewResultStoreWithClient wraps an existing Redis client (for testing).
func NewResultStoreWithClient(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *ResultStore) Put(ctx context.Context, correlationKey string, result *domain.StoredResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling stored result: %w", err)
	}
	if err := s.client.Set(ctx, resultKey(correlationKey), payload, ttl).Err(); err != nil {
		return fmt.Errorf("writing result for key %s: %w", correlationKey, err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, correlationKey string) (*domain.StoredResult, bool, error) {
	payload, err := s.client.Get(ctx, resultKey(correlationKey)).Bytes()
	if err == redis.Nil {
		// Not found means not-ready, never an error.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading result for key %s: %w", correlationKey, err)
	}

	var result domain.StoredResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("unmarshaling result for key %s: %w", correlationKey, err)
	}
	return &result, true, nil
}

func (s *ResultStore) Delete(ctx context.Context, correlationKey string) error {
	return s.client.Del(ctx, resultKey(correlationKey)).Err()
}
