package export

import (
	"time"

	calendar "rental-calendar/internal/calendar/domain"
)

const localTimeLayout = "2006-01-02 15:04"

// Week is the schedule of one station for one Monday-based week.
type Week struct {
	Station     calendar.Station
	WeekStart   time.Time
	Label       string
	Days        []Day
	Bookings    []calendar.Booking
	GeneratedAt time.Time
}

// Day holds the booking edges falling on one calendar day.
type Day struct {
	Date  time.Time
	Key   string
	Edges []calendar.EdgeBooking
}

// BuildWeek derives the week schedule from a station.
func BuildWeek(station calendar.Station, weekStart time.Time, generatedAt time.Time) Week {
	days := calendar.WeekDays(weekStart)
	week := Week{
		Station:     station,
		WeekStart:   days[0],
		Label:       calendar.FormatRangeLabel(days[0]),
		Days:        make([]Day, 0, len(days)),
		Bookings:    station.OverlappingRange(calendar.DayKey(days[0]), calendar.DayKey(days[len(days)-1])),
		GeneratedAt: generatedAt.UTC(),
	}
	for _, day := range days {
		week.Days = append(week.Days, Day{Date: day, Key: calendar.DayKey(day), Edges: station.EdgesOn(day)})
	}
	return week
}

// Filename returns a download name such as calendar_berlin-mitte_2025-04-07.csv.
func (w Week) Filename(ext string) string {
	return "calendar_" + w.Station.ID + "_" + calendar.DayKey(w.WeekStart) + "." + ext
}

func localTime(t time.Time) string {
	return t.In(calendar.Location()).Format(localTimeLayout)
}
