package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	calendar "rental-calendar/internal/calendar/domain"
	"rental-calendar/internal/observability/metrics"
)

const (
	// StationsKey holds the JSON-encoded station collection.
	StationsKey = "cc:stations"
	// SelectedStationKey holds the selected station id as plain text.
	SelectedStationKey = "cc:selectedStationId"
)

// StationCache persists stations and the selection in a key-value store.
// Reads degrade to "absent" and writes never fail the caller.
type StationCache struct {
	kv     calendar.KVStore
	logger *log.Logger
}

// NewStationCache constructs the cache.
func NewStationCache(kv calendar.KVStore, logger *log.Logger) (*StationCache, error) {
	if kv == nil {
		return nil, errors.New("station cache: nil kv store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StationCache{kv: kv, logger: logger}, nil
}

// LoadCached returns the persisted stations. An empty array is a hit.
func (c *StationCache) LoadCached(ctx context.Context) ([]calendar.Station, bool) {
	raw, ok, err := c.kv.Get(ctx, StationsKey)
	if err != nil {
		c.logger.Printf("station cache: read %s: %v", StationsKey, err)
		metrics.IncCacheRead(StationsKey, metrics.ResultError)
		return nil, false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		metrics.IncCacheRead(StationsKey, metrics.CacheMiss)
		return nil, false
	}

	var stations []calendar.Station
	if err := json.Unmarshal([]byte(raw), &stations); err != nil {
		c.logger.Printf("station cache: corrupt %s: %v", StationsKey, err)
		metrics.IncCacheRead(StationsKey, metrics.CacheCorrupt)
		return nil, false
	}
	if stations == nil {
		c.logger.Printf("station cache: %s is not an array", StationsKey)
		metrics.IncCacheRead(StationsKey, metrics.CacheCorrupt)
		return nil, false
	}
	metrics.IncCacheRead(StationsKey, metrics.CacheHit)
	return stations, true
}

// Save writes the station collection. Failures are logged and swallowed.
func (c *StationCache) Save(ctx context.Context, stations []calendar.Station) {
	if stations == nil {
		stations = []calendar.Station{}
	}
	payload, err := json.Marshal(stations)
	if err != nil {
		c.logger.Printf("station cache: encode stations: %v", err)
		metrics.IncCacheWrite(StationsKey, metrics.ResultError)
		return
	}
	if err := c.kv.Set(ctx, StationsKey, string(payload)); err != nil {
		c.logger.Printf("station cache: write %s: %v", StationsKey, err)
		metrics.IncCacheWrite(StationsKey, metrics.ResultError)
		return
	}
	metrics.IncCacheWrite(StationsKey, metrics.ResultSuccess)
}

// LoadSelected returns the persisted selection. Read failures count as absent.
func (c *StationCache) LoadSelected(ctx context.Context) (string, bool) {
	id, ok, err := c.kv.Get(ctx, SelectedStationKey)
	if err != nil {
		c.logger.Printf("station cache: read %s: %v", SelectedStationKey, err)
		metrics.IncCacheRead(SelectedStationKey, metrics.ResultError)
		return "", false
	}
	if !ok || id == "" {
		metrics.IncCacheRead(SelectedStationKey, metrics.CacheMiss)
		return "", false
	}
	metrics.IncCacheRead(SelectedStationKey, metrics.CacheHit)
	return id, true
}

// SaveSelected persists the selection; an empty id clears it.
func (c *StationCache) SaveSelected(ctx context.Context, id string) {
	var err error
	if id == "" {
		err = c.kv.Delete(ctx, SelectedStationKey)
	} else {
		err = c.kv.Set(ctx, SelectedStationKey, id)
	}
	if err != nil {
		c.logger.Printf("station cache: write %s: %v", SelectedStationKey, err)
		metrics.IncCacheWrite(SelectedStationKey, metrics.ResultError)
		return
	}
	metrics.IncCacheWrite(SelectedStationKey, metrics.ResultSuccess)
}
