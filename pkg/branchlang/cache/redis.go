package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding the mapping when no key is configured.
const DefaultRedisKey = "branchlang:counties"

// RedisStore keeps the mapping in a single Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// RedisOptions configures ConnectRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// ConnectRedis dials Redis and verifies the connection with PING.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisStore(client, opts.Key), nil
}

// NewRedisStore wraps an existing client. An empty key uses DefaultRedisKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the whole hash. A missing hash reports StatusAbsent.
func (s *RedisStore) Load(ctx context.Context) (map[string]string, LoadStatus, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, StatusCorrupt, fmt.Errorf("reading %s: %w", s.key, err)
	}
	if len(entries) == 0 {
		return map[string]string{}, StatusAbsent, nil
	}
	return entries, StatusLoaded, nil
}

// Save replaces the hash with entries in one MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context, entries map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(entries) > 0 {
			pipe.HSet(ctx, s.key, entries)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.key, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
