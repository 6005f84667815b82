package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config defines the calendar service configuration.
type Config struct {
	HTTPAddr string       `yaml:"http_addr"`
	Remote   RemoteConfig `yaml:"remote"`
	Cache    CacheConfig  `yaml:"cache"`
	Auth     AuthConfig   `yaml:"auth"`
	Notify   NotifyConfig `yaml:"notify"`
	Audit    AuditConfig  `yaml:"audit"`
}

// RemoteConfig points at the stations/booking details backend.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig selects the durable key-value backend.
type CacheConfig struct {
	Driver   string         `yaml:"driver"`
	FilePath string         `yaml:"file_path"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Remote: RemoteConfig{
			BaseURL: "http://localhost:8081",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Driver:   DriverMemory,
			FilePath: "var/calendar-cache.json",
			Postgres: PostgresConfig{Table: "calendar_kv"},
		},
	}
}

// Load reads .env (if present), the YAML file named by CALENDAR_CONFIG (if set),
// then applies environment overrides and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFile(os.Getenv("CALENDAR_CONFIG"))
}

// LoadFile loads path (skipped when empty) on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Remote.BaseURL = getenvDefault("CALENDAR_REMOTE_BASE_URL", cfg.Remote.BaseURL)
	cfg.Remote.Timeout = getenvDuration("CALENDAR_REMOTE_TIMEOUT", cfg.Remote.Timeout)

	cfg.Cache.Driver = strings.ToLower(strings.TrimSpace(getenvDefault("CALENDAR_CACHE_DRIVER", cfg.Cache.Driver)))
	cfg.Cache.FilePath = getenvDefault("CALENDAR_CACHE_FILE", cfg.Cache.FilePath)
	cfg.Cache.Redis.Address = getenvDefault("REDIS_ADDR", cfg.Cache.Redis.Address)
	cfg.Cache.Redis.Password = getenvDefault("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = getenvIntDefault("REDIS_DB", cfg.Cache.Redis.DB)
	cfg.Cache.Redis.PoolSize = getenvIntDefault("REDIS_POOL_SIZE", cfg.Cache.Redis.PoolSize)
	cfg.Cache.Redis.Prefix = getenvDefault("REDIS_KEY_PREFIX", cfg.Cache.Redis.Prefix)
	cfg.Cache.Postgres.DSN = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.Cache.Postgres.DSN))
	cfg.Cache.Postgres.Table = getenvDefault("CALENDAR_KV_TABLE", cfg.Cache.Postgres.Table)

	cfg.Auth.Enabled = getenvBool("AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.Auth.JWTSecret))
	cfg.Notify.WebhookURL = getenvDefault("CALENDAR_WEBHOOK_URL", cfg.Notify.WebhookURL)
	cfg.Audit.Enabled = getenvBool("AUDIT_ENABLED", cfg.Audit.Enabled)
}

// Validate checks that the selected backends are fully configured.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: http_addr required")
	}
	if c.Remote.BaseURL == "" {
		return errors.New("config: remote.base_url required")
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("config: remote.timeout must be > 0")
	}
	switch c.Cache.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Cache.FilePath == "" {
			return errors.New("config: cache.file_path required for file driver")
		}
	case DriverRedis:
		if c.Cache.Redis.Address == "" {
			return errors.New("config: cache.redis.address required for redis driver")
		}
	case DriverPostgres:
		if c.Cache.Postgres.DSN == "" {
			return errors.New("config: cache.postgres.dsn required for postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret required when auth is enabled")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
