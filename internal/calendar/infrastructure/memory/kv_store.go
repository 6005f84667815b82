package memory

import (
	"context"
	"errors"
	"sync"
)

// KVStore is an in-memory key-value store for demo/testing.
type KVStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewKVStore constructs a store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]string)}
}

// Get returns the value for key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	if key == "" {
		return "", false, errors.New("memory kv: empty key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	if key == "" {
		return errors.New("memory kv: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
