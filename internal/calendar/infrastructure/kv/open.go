// Package kv opens the durable key-value backend selected in configuration.
package kv

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	calendar "rental-calendar/internal/calendar/domain"
	filekv "rental-calendar/internal/calendar/infrastructure/file"
	memorykv "rental-calendar/internal/calendar/infrastructure/memory"
	postgreskv "rental-calendar/internal/calendar/infrastructure/postgres"
	rediskv "rental-calendar/internal/calendar/infrastructure/redis"
	"rental-calendar/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Backend is an opened store plus the resources behind it.
type Backend struct {
	Store calendar.KVStore
	// DB and Table are set for the postgres driver only.
	DB     *sql.DB
	Table  string
	closer func() error
}

// Close releases the backend connection, if any.
func (b Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Open builds the backend for cfg.Driver.
func Open(ctx context.Context, cfg config.CacheConfig, logger *log.Logger) (Backend, error) {
	if logger == nil {
		logger = log.Default()
	}
	switch cfg.Driver {
	case config.DriverMemory:
		return Backend{Store: memorykv.NewKVStore()}, nil
	case config.DriverFile:
		store, err := filekv.NewKVStore(cfg.FilePath)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Store: store}, nil
	case config.DriverRedis:
		return openRedis(ctx, cfg.Redis)
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return Backend{}, fmt.Errorf("db open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return Backend{}, fmt.Errorf("db ping: %w", err)
		}
		store := postgreskv.NewKVStore(db, postgreskv.WithKVTable(cfg.Postgres.Table))
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return Backend{}, err
		}
		logger.Printf("kv: postgres table %s ready", store.Table())
		return Backend{Store: store, DB: db, Table: store.Table(), closer: db.Close}, nil
	default:
		return Backend{}, fmt.Errorf("kv: unknown driver %q", cfg.Driver)
	}
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (Backend, error) {
	client := rediskv.NewClient(rediskv.Options{
		Address:  cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rediskv.Ping(ctx, client); err != nil {
		_ = rediskv.Close(client)
		return Backend{}, err
	}
	var opts []rediskv.KVOption
	if cfg.Prefix != "" {
		opts = append(opts, rediskv.WithPrefix(cfg.Prefix))
	}
	store, err := rediskv.NewKVStore(client, opts...)
	if err != nil {
		_ = rediskv.Close(client)
		return Backend{}, err
	}
	return Backend{Store: store, closer: func() error { return rediskv.Close(client) }}, nil
}
