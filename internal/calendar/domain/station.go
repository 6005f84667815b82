package calendar

import (
	"encoding/json"
	"errors"
	"time"
)

// Station is a pickup/return location owning its bookings.
type Station struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Bookings []Booking `json:"bookings"`
}

// Validate checks station invariants.
func (s Station) Validate() error {
	if s.ID == "" {
		return errors.New("station: empty id")
	}
	if s.Name == "" {
		return errors.New("station: empty name")
	}
	return nil
}

// Clone returns a deep copy.
func (s Station) Clone() Station {
	out := s
	if s.Bookings != nil {
		out.Bookings = make([]Booking, len(s.Bookings))
		for i, b := range s.Bookings {
			out.Bookings[i] = b.Clone()
		}
	}
	return out
}

// CloneStations deep-copies a station collection.
func CloneStations(stations []Station) []Station {
	if stations == nil {
		return nil
	}
	out := make([]Station, len(stations))
	for i, s := range stations {
		out[i] = s.Clone()
	}
	return out
}

// EdgesOn lists the bookings whose start or end falls on day, tagged with the matching edge.
// Bookings keep their order; a booking starting and ending on day yields start then end.
func (s Station) EdgesOn(day time.Time) []EdgeBooking {
	key := DayKey(day)
	out := []EdgeBooking{}
	for _, b := range s.Bookings {
		if b.StartKey() == key {
			out = append(out, EdgeBooking{Booking: b.Clone(), Edge: EdgeStart})
		}
		if b.EndKey() == key {
			out = append(out, EdgeBooking{Booking: b.Clone(), Edge: EdgeEnd})
		}
	}
	return out
}

// OverlappingOn lists the bookings whose day span covers day.
func (s Station) OverlappingOn(day time.Time) []Booking {
	return s.OverlappingRange(DayKey(day), DayKey(day))
}

// OverlappingRange lists the bookings whose day span intersects [fromKey, toKey].
func (s Station) OverlappingRange(fromKey, toKey string) []Booking {
	out := []Booking{}
	for _, b := range s.Bookings {
		if b.StartKey() <= toKey && fromKey <= b.EndKey() {
			out = append(out, b.Clone())
		}
	}
	return out
}

// EdgeBooking is a booking annotated with the edge that falls on a queried day.
type EdgeBooking struct {
	Booking
	Edge Edge `json:"_edge"`
}

const fieldEdge = "_edge"

// MarshalJSON writes the booking with its edge tag.
func (e EdgeBooking) MarshalJSON() ([]byte, error) {
	b := e.Booking.Clone()
	tag, err := json.Marshal(string(e.Edge))
	if err != nil {
		return nil, err
	}
	if b.Extra == nil {
		b.Extra = make(map[string]json.RawMessage, 1)
	}
	b.Extra[fieldEdge] = tag
	return b.MarshalJSON()
}

// UnmarshalJSON reads a booking and lifts its edge tag out of Extra.
func (e *EdgeBooking) UnmarshalJSON(data []byte) error {
	var b Booking
	if err := b.UnmarshalJSON(data); err != nil {
		return err
	}
	var edge string
	if raw, ok := b.Extra[fieldEdge]; ok {
		if err := json.Unmarshal(raw, &edge); err != nil {
			return err
		}
		delete(b.Extra, fieldEdge)
		if len(b.Extra) == 0 {
			b.Extra = nil
		}
	}
	e.Booking = b
	e.Edge = Edge(edge)
	return nil
}

// BookingRef pairs a booking with the station that owns it.
type BookingRef struct {
	Booking Booking `json:"booking"`
	Station Station `json:"station"`
}
