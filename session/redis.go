package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix for session records in Redis.
const DefaultRedisPrefix = "flash:session:"

// RedisStore keeps session records in Redis as JSON strings with a Redis TTL.
// Values come back as generic JSON types (map[string]any, []any, float64, ...).
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store on an existing client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromURL parses a redis:// or rediss:// URL, connects and verifies
// the connection with a ping.
func NewRedisStoreFromURL(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: redis get: %w", err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, false, fmt.Errorf("session: decode record: %w", err)
	}
	return data, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data map[string]any, ttl time.Duration) error {
	if id == "" {
		return ErrEmptyID
	}
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session: encode record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), b, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping checks the connection to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("session: redis ping: %w", err)
	}
	return nil
}
