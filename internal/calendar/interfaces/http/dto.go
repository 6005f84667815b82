package http

import (
	"time"

	calendarapp "rental-calendar/internal/calendar/application"
	calendar "rental-calendar/internal/calendar/domain"
)

type stationSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Bookings int    `json:"bookings"`
}

type dayView struct {
	Key     string                 `json:"key"`
	Weekday string                 `json:"weekday"`
	Edges   []calendar.EdgeBooking `json:"edges"`
}

type calendarView struct {
	Stations          []stationSummary `json:"stations"`
	SelectedStationID *string          `json:"selectedStationId"`
	SelectedStation   *stationSummary  `json:"selectedStation,omitempty"`
	WeekStart         string           `json:"weekStart"`
	RangeLabel        string           `json:"rangeLabel"`
	Days              []dayView        `json:"days"`
	Loading           bool             `json:"loading"`
	Error             *string          `json:"error"`
}

type dayResponse struct {
	Day         string                 `json:"day"`
	Edges       []calendar.EdgeBooking `json:"edges"`
	Overlapping []calendar.Booking     `json:"overlapping"`
}

type rescheduleRequest struct {
	Which     string `json:"which"`
	TargetKey string `json:"target_key"`
	Edge      string `json:"edge"`
	NewDate   string `json:"new_date"`
}

type stationRequest struct {
	StationID string `json:"station_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func buildCalendarView(snap calendarapp.Snapshot) calendarView {
	view := calendarView{
		Stations:   make([]stationSummary, 0, len(snap.Stations)),
		WeekStart:  calendar.DayKey(snap.WeekStart),
		RangeLabel: calendar.FormatRangeLabel(snap.WeekStart),
		Loading:    snap.Loading,
	}
	var selected *calendar.Station
	for i, station := range snap.Stations {
		view.Stations = append(view.Stations, summarize(station))
		if selected == nil && snap.SelectedStationID != "" && station.ID == snap.SelectedStationID {
			selected = &snap.Stations[i]
		}
	}
	if snap.SelectedStationID != "" {
		id := snap.SelectedStationID
		view.SelectedStationID = &id
	}
	if selected != nil {
		summary := summarize(*selected)
		view.SelectedStation = &summary
	}
	if snap.Error != "" {
		msg := snap.Error
		view.Error = &msg
	}

	for _, day := range calendar.WeekDays(snap.WeekStart) {
		edges := []calendar.EdgeBooking{}
		if selected != nil {
			edges = selected.EdgesOn(day)
		}
		view.Days = append(view.Days, dayView{
			Key:     calendar.DayKey(day),
			Weekday: day.Weekday().String(),
			Edges:   edges,
		})
	}
	return view
}

func summarize(station calendar.Station) stationSummary {
	return stationSummary{ID: station.ID, Name: station.Name, Bookings: len(station.Bookings)}
}

func noonOf(dayKey string) (time.Time, error) {
	year, month, day, err := calendar.ParseDayKey(dayKey)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, 12, 0, 0, 0, calendar.Location()), nil
}
