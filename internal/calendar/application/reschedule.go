package application

import (
	"context"
	"fmt"
	"time"

	calendar "rental-calendar/internal/calendar/domain"
	"rental-calendar/internal/observability/metrics"
)

// RescheduleEdgeRequest moves one or both edges of a booking onto the day TargetKey.
type RescheduleEdgeRequest struct {
	ID        string
	Which     calendar.Edge
	TargetKey string
}

// RescheduleRequest is the coarse form: Edge "start" moves the start, anything else the end.
type RescheduleRequest struct {
	ID      string
	Edge    string
	NewDate time.Time
}

// RescheduleBooking maps the coarse request onto RescheduleBookingEdge.
func (s *Store) RescheduleBooking(ctx context.Context, req RescheduleRequest) (calendar.Booking, error) {
	which := calendar.EdgeEnd
	if req.Edge == string(calendar.EdgeStart) {
		which = calendar.EdgeStart
	}
	return s.RescheduleBookingEdge(ctx, RescheduleEdgeRequest{
		ID:        req.ID,
		Which:     which,
		TargetKey: calendar.DayKey(req.NewDate),
	})
}

// RescheduleBookingEdge moves the selected edge keeping the local time of day, clamps the
// other edge so start never passes end, and persists the whole collection.
func (s *Store) RescheduleBookingEdge(ctx context.Context, req RescheduleEdgeRequest) (calendar.Booking, error) {
	if !req.Which.IsValid() {
		metrics.IncReschedule(string(req.Which), metrics.ResultError)
		return calendar.Booking{}, fmt.Errorf("%w: %q", calendar.ErrInvalidEdge, string(req.Which))
	}
	if _, _, _, err := calendar.ParseDayKey(req.TargetKey); err != nil {
		metrics.IncReschedule(string(req.Which), metrics.ResultError)
		return calendar.Booking{}, err
	}

	s.mu.Lock()
	si, bi, ok := s.findLocked(req.ID)
	if !ok {
		s.mu.Unlock()
		s.logger.Printf("calendar store: booking not found: %s", req.ID)
		metrics.IncReschedule(string(req.Which), metrics.ResultSkipped)
		return calendar.Booking{}, fmt.Errorf("%w: %s", calendar.ErrBookingNotFound, req.ID)
	}

	booking := &s.stations[si].Bookings[bi]
	moved, err := moveEdge(*booking, req.Which, req.TargetKey)
	if err != nil {
		s.mu.Unlock()
		metrics.IncReschedule(string(req.Which), metrics.ResultError)
		return calendar.Booking{}, err
	}
	*booking = moved
	s.cache.Save(ctx, s.stations)
	updated := booking.Clone()
	stationID := s.stations[si].ID
	s.mu.Unlock()

	s.logger.Printf("[mock] PATCH /bookings/%s start=%s end=%s",
		updated.ID, calendar.FormatTimestamp(updated.StartDate), calendar.FormatTimestamp(updated.EndDate))
	metrics.IncReschedule(string(req.Which), metrics.ResultSuccess)

	if s.notifier != nil {
		s.notifier.Notify(ctx, BookingRescheduled{
			BookingID:  updated.ID,
			StationID:  stationID,
			Edge:       req.Which,
			TargetKey:  req.TargetKey,
			StartDate:  updated.StartDate,
			EndDate:    updated.EndDate,
			OccurredAt: s.clock.Now(),
		})
	}
	return updated, nil
}

func moveEdge(b calendar.Booking, which calendar.Edge, targetKey string) (calendar.Booking, error) {
	switch which {
	case calendar.EdgeStart:
		start, err := calendar.MoveDateKeepingTime(b.StartDate, targetKey)
		if err != nil {
			return b, err
		}
		b.StartDate = start.UTC()
		if b.StartDate.After(b.EndDate) {
			b.EndDate = b.StartDate
		}
	case calendar.EdgeEnd:
		end, err := calendar.MoveDateKeepingTime(b.EndDate, targetKey)
		if err != nil {
			return b, err
		}
		b.EndDate = end.UTC()
		if b.EndDate.Before(b.StartDate) {
			b.StartDate = b.EndDate
		}
	case calendar.EdgeBoth:
		start, err := calendar.MoveDateKeepingTime(b.StartDate, targetKey)
		if err != nil {
			return b, err
		}
		end, err := calendar.MoveDateKeepingTime(b.EndDate, targetKey)
		if err != nil {
			return b, err
		}
		b.StartDate = start.UTC()
		b.EndDate = end.UTC()
	default:
		return b, fmt.Errorf("%w: %q", calendar.ErrInvalidEdge, string(which))
	}
	return b, nil
}
