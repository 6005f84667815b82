package calendar

import (
	"fmt"
	"strings"
	"time"

	// Day keys must not depend on the host zoneinfo database.
	_ "time/tzdata"
)

// Zone is the civil time zone all day keys and week boundaries are computed in.
const Zone = "Europe/Berlin"

// DayKeyLayout is the layout of a calendar day key.
const DayKeyLayout = "2006-01-02"

const (
	rangeStartLayout = "Jan 2"
	rangeEndLayout   = "Jan 2, 2006"
)

var berlin = mustLoadLocation(Zone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("calendar: load location %s: %v", name, err))
	}
	return loc
}

// Location returns the fixed calendar zone.
func Location() *time.Location { return berlin }

// ParseInstant parses RFC 3339 timestamps, bare day keys (UTC midnight) and
// zone-less local timestamps (Berlin wall time).
func ParseInstant(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, &InvalidDateError{Input: value}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DayKeyLayout, raw); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, berlin); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateError{Input: value}
}

// ParseDayKey validates a YYYY-MM-DD key and returns its components.
func ParseDayKey(key string) (int, time.Month, int, error) {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		return 0, 0, 0, &InvalidDateError{Input: key}
	}
	return t.Year(), t.Month(), t.Day(), nil
}

// ISOWeekday returns 1 (Monday) through 7 (Sunday) for t in the calendar zone.
func ISOWeekday(t time.Time) int {
	wd := int(t.In(berlin).Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MondayOfWeek moves t back to the Monday of its week, keeping the local time of day.
func MondayOfWeek(t time.Time) time.Time {
	local := t.In(berlin)
	return local.AddDate(0, 0, -(ISOWeekday(local) - 1))
}

// WeekDays returns the seven days of the week containing weekStart, Monday first.
func WeekDays(weekStart time.Time) []time.Time {
	monday := MondayOfWeek(weekStart)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// DayKey returns the YYYY-MM-DD bucket of t in the calendar zone.
func DayKey(t time.Time) string {
	return t.In(berlin).Format(DayKeyLayout)
}

// IsSameLocalDay reports whether a and b fall on the same calendar day.
func IsSameLocalDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

// PrevWeek returns the Monday one week before the week containing t.
func PrevWeek(t time.Time) time.Time {
	return MondayOfWeek(t).AddDate(0, 0, -7)
}

// NextWeek returns the Monday one week after the week containing t.
func NextWeek(t time.Time) time.Time {
	return MondayOfWeek(t).AddDate(0, 0, 7)
}

// FormatRangeLabel renders "Apr 7–Apr 13, 2025" for the week containing weekStart.
func FormatRangeLabel(weekStart time.Time) string {
	days := WeekDays(weekStart)
	return days[0].Format(rangeStartLayout) + "–" + days[6].Format(rangeEndLayout)
}

// MoveDateKeepingTime places t on the calendar day dayKey; only the date changes,
// the local wall-clock time is kept.
func MoveDateKeepingTime(t time.Time, dayKey string) (time.Time, error) {
	year, month, day, err := ParseDayKey(dayKey)
	if err != nil {
		return time.Time{}, err
	}
	local := t.In(berlin)
	return time.Date(year, month, day, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), berlin), nil
}
