package application

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	calendar "rental-calendar/internal/calendar/domain"
)

type stubKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
	failGet bool
	sets    int
	deletes int
}

func newStubKV() *stubKV {
	return &stubKV{data: make(map[string]string)}
}

func (s *stubKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return "", false, errors.New("kv unavailable")
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.failSet {
		return errors.New("quota exceeded")
	}
	s.data[key] = value
	return nil
}

func (s *stubKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failSet {
		return errors.New("quota exceeded")
	}
	delete(s.data, key)
	return nil
}

type stubSource struct {
	mu       sync.Mutex
	stations []calendar.Station
	err      error
	calls    int
	block    chan struct{}
}

func (s *stubSource) FetchStations(ctx context.Context) ([]calendar.Station, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return calendar.CloneStations(s.stations), nil
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubNotifier struct {
	mu     sync.Mutex
	events []BookingRescheduled
}

func (n *stubNotifier) Notify(_ context.Context, event BookingRescheduled) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func utc(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleStations() []calendar.Station {
	return []calendar.Station{
		{
			ID:   "berlin-mitte",
			Name: "Berlin Mitte",
			Bookings: []calendar.Booking{
				{ID: "b-1", PickupReturnStationID: "berlin-mitte", CustomerName: "Ada", StartDate: utc("2025-04-07T10:00:00Z"), EndDate: utc("2025-04-10T10:00:00Z")},
				{ID: "b-2", PickupReturnStationID: "berlin-mitte", StartDate: utc("2025-04-11T08:00:00Z"), EndDate: utc("2025-04-11T18:00:00Z")},
				{ID: "b-3", PickupReturnStationID: "berlin-mitte", StartDate: utc("2025-08-08T09:00:00Z"), EndDate: utc("2025-08-10T12:00:00Z")},
			},
		},
		{
			ID:   "hamburg",
			Name: "Hamburg Hbf",
			Bookings: []calendar.Booking{
				{ID: "h-1", PickupReturnStationID: "hamburg", StartDate: utc("2025-08-01T09:00:00Z"), EndDate: utc("2025-08-03T12:00:00Z")},
			},
		},
	}
}

func newTestStore(kv *stubKV, source *stubSource, notifier Notifier) *Store {
	cache, err := NewStationCache(kv, discardLogger())
	if err != nil {
		panic(err)
	}
	if notifier == nil {
		notifier = &stubNotifier{}
	}
	store, err := NewStore(cache, source, notifier, fixedClock{now: utc("2025-04-09T10:00:00Z")}, discardLogger())
	if err != nil {
		panic(err)
	}
	return store
}
