package application

import (
	"context"
	"time"

	calendar "rental-calendar/internal/calendar/domain"
)

// StationSource loads the station collection from the remote backend.
type StationSource interface {
	FetchStations(ctx context.Context) ([]calendar.Station, error)
}

// BookingDetailSource looks up a single booking detail record. It returns nil when absent.
type BookingDetailSource interface {
	FetchBookingDetail(ctx context.Context, id string) (*calendar.Booking, error)
}

// Notifier receives reschedule events.
type Notifier interface {
	Notify(ctx context.Context, event BookingRescheduled)
}

// BookingRescheduled is emitted after every successful reschedule.
type BookingRescheduled struct {
	BookingID  string        `json:"booking_id"`
	StationID  string        `json:"station_id"`
	Edge       calendar.Edge `json:"edge"`
	TargetKey  string        `json:"target_key"`
	StartDate  time.Time     `json:"start_date"`
	EndDate    time.Time     `json:"end_date"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Clock provides current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
