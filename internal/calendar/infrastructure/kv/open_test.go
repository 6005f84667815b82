package kv

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"rental-calendar/internal/config"
)

func TestOpenMemoryAndFile(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	ctx := context.Background()

	backend, err := Open(ctx, config.CacheConfig{Driver: config.DriverMemory}, logger)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if backend.DB != nil || backend.Table != "" {
		t.Fatalf("memory backend must not expose a db")
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cache", "kv.json")
	backend, err = Open(ctx, config.CacheConfig{Driver: config.DriverFile, FilePath: path}, logger)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if err := backend.Store.Set(ctx, "cc:selectedStationId", "hamburg"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := backend.Store.Get(ctx, "cc:selectedStationId")
	if err != nil || !ok || value != "hamburg" {
		t.Fatalf("unexpected get %q %v %v", value, ok, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.CacheConfig{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	backend, err := Open(context.Background(), config.CacheConfig{
		Driver: config.DriverRedis,
		Redis:  config.RedisConfig{Address: addr, Prefix: "kvtest:"},
	}, nil)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	defer backend.Close()
	if err := backend.Store.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestOpenPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	backend, err := Open(context.Background(), config.CacheConfig{
		Driver:   config.DriverPostgres,
		Postgres: config.PostgresConfig{DSN: dsn, Table: "calendar_kv_open_test"},
	}, nil)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	defer backend.Close()
	if backend.DB == nil || backend.Table != "calendar_kv_open_test" {
		t.Fatalf("expected db handle and table, got %+v", backend)
	}
	_, _ = backend.DB.Exec("DROP TABLE IF EXISTS calendar_kv_open_test")
}
