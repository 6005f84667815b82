package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	calendar "rental-calendar/internal/calendar/domain"
)

const (
	stationsPath       = "/stations.json"
	bookingDetailsPath = "/bookingDetails.json"
	defaultTimeout     = 10 * time.Second
)

// Client reads stations and booking details from the booking backend.
type Client struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// NewClient constructs a client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("remote: empty base url")
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: defaultTimeout},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ErrInvalidPayload is returned when a resource does not match its schema.
var ErrInvalidPayload = errors.New("remote: invalid payload")

// Required fields are pointers so validation checks presence; empty strings are accepted.
type stationPayload struct {
	ID       *string           `json:"id" validate:"required"`
	Name     *string           `json:"name" validate:"required"`
	Bookings []json.RawMessage `json:"bookings" validate:"required"`
}

type bookingPayload struct {
	ID                    *string `json:"id" validate:"required"`
	PickupReturnStationID *string `json:"pickupReturnStationId" validate:"required"`
	StartDate             *string `json:"startDate" validate:"required"`
	EndDate               *string `json:"endDate" validate:"required"`
	CustomerName          *string `json:"customerName"`
}

type bookingDetailPayload struct {
	ID                    *string `json:"id" validate:"required"`
	CustomerName          *string `json:"customerName" validate:"required"`
	PickupReturnStationID *string `json:"pickupReturnStationId" validate:"required"`
	StartDate             *string `json:"startDate" validate:"required"`
	EndDate               *string `json:"endDate" validate:"required"`
}

// FetchStations loads and validates the station list.
func (c *Client) FetchStations(ctx context.Context) ([]calendar.Station, error) {
	var payload []json.RawMessage
	if err := c.getArray(ctx, stationsPath, &payload); err != nil {
		return nil, err
	}

	stations := make([]calendar.Station, 0, len(payload))
	for i, raw := range payload {
		var item stationPayload
		if err := c.decodeValid(raw, &item); err != nil {
			return nil, fmt.Errorf("remote: station %d: %w", i, err)
		}
		station := calendar.Station{ID: *item.ID, Name: *item.Name, Bookings: make([]calendar.Booking, 0, len(item.Bookings))}
		for j, rawBooking := range item.Bookings {
			var shape bookingPayload
			if err := c.decodeValid(rawBooking, &shape); err != nil {
				return nil, fmt.Errorf("remote: station %s booking %d: %w", station.ID, j, err)
			}
			if err := rejectNull(rawBooking, "customerName"); err != nil {
				return nil, fmt.Errorf("remote: station %s booking %s: %w", station.ID, *shape.ID, err)
			}
			var booking calendar.Booking
			if err := json.Unmarshal(rawBooking, &booking); err != nil {
				return nil, fmt.Errorf("remote: station %s booking %s: %w", station.ID, *shape.ID, err)
			}
			station.Bookings = append(station.Bookings, booking)
		}
		stations = append(stations, station)
	}
	return stations, nil
}

// FetchBookingDetails loads and validates the flat booking detail list.
func (c *Client) FetchBookingDetails(ctx context.Context) ([]calendar.Booking, error) {
	var payload []json.RawMessage
	if err := c.getArray(ctx, bookingDetailsPath, &payload); err != nil {
		return nil, err
	}

	details := make([]calendar.Booking, 0, len(payload))
	for i, raw := range payload {
		var shape bookingDetailPayload
		if err := c.decodeValid(raw, &shape); err != nil {
			return nil, fmt.Errorf("remote: booking detail %d: %w", i, err)
		}
		var booking calendar.Booking
		if err := json.Unmarshal(raw, &booking); err != nil {
			return nil, fmt.Errorf("remote: booking detail %s: %w", *shape.ID, err)
		}
		details = append(details, booking)
	}
	return details, nil
}

// FetchBookingDetail returns the detail record for id, or nil when absent.
func (c *Client) FetchBookingDetail(ctx context.Context, id string) (*calendar.Booking, error) {
	details, err := c.FetchBookingDetails(ctx)
	if err != nil {
		return nil, err
	}
	for i := range details {
		if details[i].ID == id {
			detail := details[i]
			return &detail, nil
		}
	}
	return nil, nil
}

func (c *Client) decodeValid(raw json.RawMessage, out any) error {
	if !isObject(raw) {
		return fmt.Errorf("%w: expected object", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// getArray decodes a top-level JSON array; null and other shapes are rejected.
func (c *Client) getArray(ctx context.Context, path string, out *[]json.RawMessage) error {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: %s is not an array", ErrInvalidPayload, path)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, path, err)
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// rejectNull fails when an optional field is present with an explicit null.
func rejectNull(raw json.RawMessage, field string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if value, ok := fields[field]; ok && string(bytes.TrimSpace(value)) == "null" {
		return fmt.Errorf("%w: %s must not be null", ErrInvalidPayload, field)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("remote: get %s: http %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode %s: %w", path, err)
	}
	return nil
}
