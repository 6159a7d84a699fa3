package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps blobs as plain string values under blob:<container>/<key>.
// It backs local runs where no object store is available.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func blobKey(container, key string) string {
	return fmt.Sprintf("blob:%s/%s", container, key)
}

func (s *RedisStore) Get(ctx context.Context, container, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, blobKey(container, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", blobKey(container, key), ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", blobKey(container, key), err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, container, key string, data []byte) error {
	if err := s.client.Set(ctx, blobKey(container, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", blobKey(container, key), err)
	}
	return nil
}
