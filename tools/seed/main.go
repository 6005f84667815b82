package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	calendarapp "rental-calendar/internal/calendar/application"
	calendar "rental-calendar/internal/calendar/domain"
	"rental-calendar/internal/calendar/infrastructure/kv"
	"rental-calendar/internal/calendar/infrastructure/remote"
	"rental-calendar/internal/config"
)

type options struct {
	file      string
	remoteURL string
	driver    string
	selected  string
	clear     bool
}

func main() {
	opts := parseOptions()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if opts.driver != "" {
		cfg.Cache.Driver = opts.driver
	}
	if cfg.Cache.Driver == config.DriverMemory {
		log.Fatal("seeding the memory driver has no effect; use -driver file|redis|postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backend, err := kv.Open(ctx, cfg.Cache, log.Default())
	if err != nil {
		log.Fatalf("open %s backend: %v", cfg.Cache.Driver, err)
	}
	defer backend.Close()

	if opts.clear {
		for _, key := range []string{calendarapp.StationsKey, calendarapp.SelectedStationKey} {
			if err := backend.Store.Delete(ctx, key); err != nil {
				log.Fatalf("delete %s: %v", key, err)
			}
		}
		log.Printf("cleared calendar cache (%s)", cfg.Cache.Driver)
		return
	}

	stations, err := readStations(ctx, opts, cfg.Remote)
	if err != nil {
		log.Fatalf("read stations: %v", err)
	}
	if err := seed(ctx, backend.Store, stations, opts.selected); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d stations into %s cache", len(stations), cfg.Cache.Driver)
}

func parseOptions() options {
	var opts options
	flag.StringVar(&opts.file, "file", "stations.json", "stations JSON file")
	flag.StringVar(&opts.remoteURL, "remote", "", "fetch stations from this base URL instead of -file")
	flag.StringVar(&opts.driver, "driver", "", "cache driver override (file|redis|postgres)")
	flag.StringVar(&opts.selected, "select", "", "station id to persist as the selection")
	flag.BoolVar(&opts.clear, "clear", false, "delete cached stations and selection")
	flag.Parse()
	return opts
}

func readStations(ctx context.Context, opts options, remoteCfg config.RemoteConfig) ([]calendar.Station, error) {
	if opts.remoteURL != "" {
		client, err := remote.NewClient(opts.remoteURL, remote.WithTimeout(remoteCfg.Timeout))
		if err != nil {
			return nil, err
		}
		return client.FetchStations(ctx)
	}
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, err
	}
	return decodeStations(data)
}

func decodeStations(data []byte) ([]calendar.Station, error) {
	var stations []calendar.Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, err
	}
	if stations == nil {
		return nil, errors.New("stations payload must be an array")
	}
	for i, station := range stations {
		if err := station.Validate(); err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		for _, booking := range station.Bookings {
			if booking.ID == "" {
				return nil, fmt.Errorf("station %s: booking without id", station.ID)
			}
			if booking.EndDate.Before(booking.StartDate) {
				return nil, fmt.Errorf("station %s: booking %s ends before it starts", station.ID, booking.ID)
			}
		}
	}
	return stations, nil
}

func seed(ctx context.Context, store calendar.KVStore, stations []calendar.Station, selected string) error {
	payload, err := json.Marshal(stations)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, calendarapp.StationsKey, string(payload)); err != nil {
		return fmt.Errorf("write %s: %w", calendarapp.StationsKey, err)
	}
	if selected == "" {
		return nil
	}
	found := false
	for _, station := range stations {
		if station.ID == selected {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown station %q", selected)
	}
	if err := store.Set(ctx, calendarapp.SelectedStationKey, selected); err != nil {
		return fmt.Errorf("write %s: %w", calendarapp.SelectedStationKey, err)
	}
	return nil
}
