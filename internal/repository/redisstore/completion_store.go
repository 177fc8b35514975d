package redisstore

import (
	"context"
	"errors"
	"fmt"

	"food-expose-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

type completionStore struct {
	client    *redis.Client
	namespace string
}

// NewCompletionStore stores each key as "<namespace>:<key>" with no expiry.
func NewCompletionStore(client *redis.Client, namespace string) domain.CompletionStore {
	return &completionStore{client: client, namespace: namespace}
}

func (s *completionStore) key(k string) string {
	return s.namespace + ":" + k
}

func (s *completionStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *completionStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *completionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
