package notify

import (
	"context"
	"log"

	calendarapp "rental-calendar/internal/calendar/application"
	calendar "rental-calendar/internal/calendar/domain"
)

// LogNotifier writes one line per reschedule event.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, event calendarapp.BookingRescheduled) {
	if n == nil {
		return
	}
	n.logger.Printf("booking rescheduled: id=%s station=%s edge=%s target=%s start=%s end=%s",
		event.BookingID,
		event.StationID,
		event.Edge,
		event.TargetKey,
		calendar.FormatTimestamp(event.StartDate),
		calendar.FormatTimestamp(event.EndDate),
	)
}
