package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	filePermissions = 0o644
	tmpSuffix       = ".tmp"
)

// KVStore keeps all keys in one JSON document on disk.
// Every write rewrites the document through a temp file and rename.
type KVStore struct {
	mu   sync.Mutex
	path string
}

// NewKVStore constructs a store backed by path. The parent directory is created if missing.
func NewKVStore(path string) (*KVStore, error) {
	if path == "" {
		return nil, errors.New("file kv: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file kv: create dir: %w", err)
	}
	return &KVStore{path: path}, nil
}

// Get returns the value for key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.readLocked()
	if err != nil {
		return "", false, err
	}
	value, ok := data[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return errors.New("file kv: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.readLocked()
	if err != nil {
		return err
	}
	data[key] = value
	return s.writeLocked(data)
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.readLocked()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.writeLocked(data)
}

func (s *KVStore) readLocked() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("file kv: read: %w", err)
	}
	data := make(map[string]string)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("file kv: decode %s: %w", s.path, err)
	}
	return data, nil
}

func (s *KVStore) writeLocked(data map[string]string) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + tmpSuffix
	if err := os.WriteFile(tmp, payload, filePermissions); err != nil {
		return fmt.Errorf("file kv: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("file kv: rename: %w", err)
	}
	return nil
}
