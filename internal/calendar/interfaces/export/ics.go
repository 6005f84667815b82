package export

import (
	"bytes"
	"fmt"
	"strings"

	calendar "rental-calendar/internal/calendar/domain"
)

const (
	icsProductID = "-//rental-calendar//booking calendar//EN"
	icsStamp     = "20060102T150405Z"
)

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// BuildICS renders every booking touching the week as a VEVENT.
func BuildICS(week Week) []byte {
	var b bytes.Buffer
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", icsProductID)
	line("X-WR-CALNAME:%s", icsEscaper.Replace(week.Station.Name+" "+week.Label))
	line("X-WR-TIMEZONE:%s", calendar.Zone)
	line("CALSCALE:GREGORIAN")

	stamp := week.GeneratedAt.UTC().Format(icsStamp)
	for _, booking := range week.Bookings {
		summary := "Booking " + booking.ID
		if booking.CustomerName != "" {
			summary += " - " + booking.CustomerName
		}
		line("BEGIN:VEVENT")
		line("UID:%s-%s@rental-calendar", booking.ID, week.Station.ID)
		line("DTSTAMP:%s", stamp)
		line("DTSTART:%s", booking.StartDate.UTC().Format(icsStamp))
		line("DTEND:%s", booking.EndDate.UTC().Format(icsStamp))
		line("SUMMARY:%s", icsEscaper.Replace(summary))
		line("LOCATION:%s", icsEscaper.Replace(week.Station.Name))
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	return b.Bytes()
}
