package notify

import (
	"context"

	calendarapp "rental-calendar/internal/calendar/application"
)

// MultiNotifier dispatches reschedule events to multiple notifiers.
type MultiNotifier struct {
	notifiers []calendarapp.Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...calendarapp.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards events to all notifiers.
func (m *MultiNotifier) Notify(ctx context.Context, event calendarapp.BookingRescheduled) {
	if m == nil {
		return
	}
	for _, notifier := range m.notifiers {
		if notifier != nil {
			notifier.Notify(ctx, event)
		}
	}
}
