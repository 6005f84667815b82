package application

import (
	"time"

	calendar "rental-calendar/internal/calendar/domain"
)

// SelectedStation returns a copy of the selected station.
func (s *Store) SelectedStation() (calendar.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	station := s.selectedLocked()
	if station == nil {
		return calendar.Station{}, false
	}
	return station.Clone(), true
}

// DaysOfWeek returns the seven days of the visible week.
func (s *Store) DaysOfWeek() []time.Time {
	return calendar.WeekDays(s.WeekStart())
}

// RangeLabel renders the visible week as "Apr 7–Apr 13, 2025".
func (s *Store) RangeLabel() string {
	return calendar.FormatRangeLabel(s.WeekStart())
}

// BookingsForDay lists the start and end edges of the selected station's bookings on day.
// A booking starting and ending on day yields two entries, start first.
func (s *Store) BookingsForDay(day time.Time) []calendar.EdgeBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	station := s.selectedLocked()
	if station == nil {
		return []calendar.EdgeBooking{}
	}
	return station.EdgesOn(day)
}

// BookingsOverlappingDay lists the selected station's bookings whose span covers day.
func (s *Store) BookingsOverlappingDay(day time.Time) []calendar.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	station := s.selectedLocked()
	if station == nil {
		return []calendar.Booking{}
	}
	return station.OverlappingOn(day)
}

// BookingByID searches all stations in order and returns the first match.
func (s *Store) BookingByID(id string) (calendar.BookingRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	si, bi, ok := s.findLocked(id)
	if !ok {
		return calendar.BookingRef{}, false
	}
	station := s.stations[si]
	return calendar.BookingRef{Booking: station.Bookings[bi].Clone(), Station: station.Clone()}, true
}

func (s *Store) selectedLocked() *calendar.Station {
	if s.selectedStationID == "" {
		return nil
	}
	for i := range s.stations {
		if s.stations[i].ID == s.selectedStationID {
			return &s.stations[i]
		}
	}
	return nil
}

func (s *Store) findLocked(id string) (int, int, bool) {
	for si := range s.stations {
		for bi := range s.stations[si].Bookings {
			if s.stations[si].Bookings[bi].ID == id {
				return si, bi, true
			}
		}
	}
	return 0, 0, false
}
