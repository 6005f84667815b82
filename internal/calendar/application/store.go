package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	calendar "rental-calendar/internal/calendar/domain"
	"rental-calendar/internal/observability/metrics"
)

// LoadErrorMessage is the user-facing error shown after a failed load.
const LoadErrorMessage = "Failed to load stations.json"

// Store holds the calendar state of one session.
type Store struct {
	cache    *StationCache
	source   StationSource
	notifier Notifier
	clock    Clock
	logger   *log.Logger

	// loadMu serializes LoadStations; mu guards the state below.
	loadMu sync.Mutex
	mu     sync.RWMutex

	stations          []calendar.Station
	selectedStationID string
	weekStart         time.Time
	loading           bool
	err               string
}

// Snapshot is a copy of the full store state.
type Snapshot struct {
	Stations          []calendar.Station
	SelectedStationID string
	WeekStart         time.Time
	Loading           bool
	Error             string
}

// NewStore constructs the store. Notifier may be nil; a nil clock defaults to SystemClock.
func NewStore(
	cache *StationCache,
	source StationSource,
	notifier Notifier,
	clock Clock,
	logger *log.Logger,
) (*Store, error) {
	if cache == nil {
		return nil, errors.New("calendar store: nil station cache")
	}
	if source == nil {
		return nil, errors.New("calendar store: nil station source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		cache:     cache,
		source:    source,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
		stations:  []calendar.Station{},
		weekStart: calendar.MondayOfWeek(clock.Now()),
	}, nil
}

// LoadStations adopts the cached collection, or fetches it from the remote source on a miss.
func (s *Store) LoadStations(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	started := time.Now()
	if cached, ok := s.cache.LoadCached(ctx); ok {
		selected, ok := s.cache.LoadSelected(ctx)
		if !ok {
			selected = firstStationID(cached)
		}
		s.mu.Lock()
		s.stations = cached
		s.selectedStationID = selected
		s.mu.Unlock()
		metrics.ObserveLoad(metrics.SourceCache, metrics.ResultSuccess, time.Since(started))
		return nil
	}

	stations, err := s.source.FetchStations(ctx)
	if err != nil {
		s.mu.Lock()
		s.err = LoadErrorMessage
		s.mu.Unlock()
		s.logger.Printf("calendar store: load stations: %v", err)
		metrics.ObserveLoad(metrics.SourceRemote, metrics.ResultError, time.Since(started))
		return fmt.Errorf("%w: %w", calendar.ErrLoadFailure, err)
	}
	if stations == nil {
		stations = []calendar.Station{}
	}

	s.mu.Lock()
	s.stations = stations
	s.selectedStationID = firstStationID(stations)
	s.cache.Save(ctx, s.stations)
	s.cache.SaveSelected(ctx, s.selectedStationID)
	s.mu.Unlock()
	metrics.ObserveLoad(metrics.SourceRemote, metrics.ResultSuccess, time.Since(started))
	return nil
}

// SetStation selects a station and persists the choice. The id is not validated.
func (s *Store) SetStation(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedStationID = id
	s.cache.SaveSelected(ctx, id)
}

// SaveStations persists the current collection.
func (s *Store) SaveStations(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.cache.Save(ctx, s.stations)
}

// PrevWeek moves the visible week back by seven days.
func (s *Store) PrevWeek() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekStart = calendar.PrevWeek(s.weekStart)
	return s.weekStart
}

// NextWeek moves the visible week forward by seven days.
func (s *Store) NextWeek() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekStart = calendar.NextWeek(s.weekStart)
	return s.weekStart
}

// ThisWeek jumps back to the week containing the current time.
func (s *Store) ThisWeek() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekStart = calendar.MondayOfWeek(s.clock.Now())
	return s.weekStart
}

// Snapshot returns a deep copy of the state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Stations:          calendar.CloneStations(s.stations),
		SelectedStationID: s.selectedStationID,
		WeekStart:         s.weekStart,
		Loading:           s.loading,
		Error:             s.err,
	}
}

// Stations returns a copy of the station collection.
func (s *Store) Stations() []calendar.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return calendar.CloneStations(s.stations)
}

// SelectedStationID returns the current selection, empty when none.
func (s *Store) SelectedStationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedStationID
}

// WeekStart returns the Monday of the visible week.
func (s *Store) WeekStart() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weekStart
}

// Loading reports whether a remote fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last load error message, empty when none.
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func firstStationID(stations []calendar.Station) string {
	if len(stations) == 0 {
		return ""
	}
	return stations[0].ID
}
