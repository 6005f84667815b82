package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Options configures the Redis connection.
type Options struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// NewClient creates a Redis client from options.
func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})
}

// Ping checks the connection.
func Ping(ctx context.Context, client *goredis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis kv: ping: %w", err)
	}
	return nil
}

// Close closes the client if set.
func Close(client *goredis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// KVStore stores calendar keys as plain Redis strings.
type KVStore struct {
	client goredis.Cmdable
	prefix string
}

// KVOption configures the store.
type KVOption func(*KVStore)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) KVOption {
	return func(s *KVStore) {
		s.prefix = prefix
	}
}

// NewKVStore constructs a store.
func NewKVStore(client goredis.Cmdable, opts ...KVOption) (*KVStore, error) {
	if client == nil {
		return nil, errors.New("redis kv: nil client")
	}
	store := &KVStore{client: client}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Get returns the value for key; a missing key is not an error.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis kv: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key without expiry.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis kv: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis kv: del %s: %w", key, err)
	}
	return nil
}
