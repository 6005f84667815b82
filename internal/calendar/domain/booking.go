package calendar

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the wire format of booking instants.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	fieldID           = "id"
	fieldStationID    = "pickupReturnStationId"
	fieldCustomerName = "customerName"
	fieldStartDate    = "startDate"
	fieldEndDate      = "endDate"
)

// Booking is a reservation at a pickup/return station.
// Fields the calendar does not know about are kept in Extra so payloads round-trip.
type Booking struct {
	ID                    string
	PickupReturnStationID string
	CustomerName          string
	StartDate             time.Time
	EndDate               time.Time
	Extra                 map[string]json.RawMessage
}

// Clone returns a deep copy.
func (b Booking) Clone() Booking {
	out := b
	if b.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(b.Extra))
		for k, v := range b.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// StartKey returns the day key of the start instant.
func (b Booking) StartKey() string { return DayKey(b.StartDate) }

// EndKey returns the day key of the end instant.
func (b Booking) EndKey() string { return DayKey(b.EndDate) }

// FormatTimestamp renders t in the booking wire format (UTC, millisecond precision).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON writes known fields plus Extra.
func (b Booking) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.Extra)+5)
	for k, v := range b.Extra {
		out[k] = v
	}
	out[fieldID] = b.ID
	out[fieldStationID] = b.PickupReturnStationID
	if b.CustomerName != "" {
		out[fieldCustomerName] = b.CustomerName
	}
	out[fieldStartDate] = FormatTimestamp(b.StartDate)
	out[fieldEndDate] = FormatTimestamp(b.EndDate)
	return json.Marshal(out)
}

// UnmarshalJSON reads known fields and keeps the rest in Extra.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded Booking
	var start, end string
	known := []struct {
		key string
		dst *string
	}{
		{fieldID, &decoded.ID},
		{fieldStationID, &decoded.PickupReturnStationID},
		{fieldCustomerName, &decoded.CustomerName},
		{fieldStartDate, &start},
		{fieldEndDate, &end},
	}
	for _, field := range known {
		value, ok := raw[field.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, field.dst); err != nil {
			return err
		}
		delete(raw, field.key)
	}

	var err error
	if decoded.StartDate, err = ParseInstant(start); err != nil {
		return err
	}
	if decoded.EndDate, err = ParseInstant(end); err != nil {
		return err
	}
	decoded.StartDate = decoded.StartDate.UTC()
	decoded.EndDate = decoded.EndDate.UTC()

	if len(raw) > 0 {
		decoded.Extra = make(map[string]json.RawMessage, len(raw))
		for k, v := range raw {
			var buf bytes.Buffer
			if err := json.Compact(&buf, v); err != nil {
				return err
			}
			decoded.Extra[k] = json.RawMessage(buf.Bytes())
		}
	}
	*b = decoded
	return nil
}
