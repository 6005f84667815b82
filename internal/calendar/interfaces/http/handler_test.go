package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rental-calendar/internal/audit"
	calendarapp "rental-calendar/internal/calendar/application"
	calendar "rental-calendar/internal/calendar/domain"
	"rental-calendar/internal/calendar/infrastructure/memory"
)

const stationsFixture = `[
  {"id":"berlin-mitte","name":"Berlin Mitte","bookings":[
    {"id":"b-1","pickupReturnStationId":"berlin-mitte","customerName":"Ada","startDate":"2025-04-07T10:00:00.000Z","endDate":"2025-04-10T10:00:00.000Z","vehicle":"VW ID.3"},
    {"id":"b-2","pickupReturnStationId":"berlin-mitte","startDate":"2025-04-11T08:00:00.000Z","endDate":"2025-04-11T18:00:00.000Z"},
    {"id":"b-3","pickupReturnStationId":"berlin-mitte","startDate":"2025-08-08T09:00:00.000Z","endDate":"2025-08-10T12:00:00.000Z"}
  ]},
  {"id":"hamburg","name":"Hamburg Hbf","bookings":[
    {"id":"h-1","pickupReturnStationId":"hamburg","startDate":"2025-04-08T09:00:00.000Z","endDate":"2025-04-09T12:00:00.000Z"}
  ]}
]`

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type failingSource struct{}

func (failingSource) FetchStations(context.Context) ([]calendar.Station, error) {
	return nil, errors.New("backend down")
}

type stubDetails struct {
	detail *calendar.Booking
	err    error
}

func (s stubDetails) FetchBookingDetail(_ context.Context, id string) (*calendar.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.detail != nil && s.detail.ID == id {
		return s.detail, nil
	}
	return nil, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Log(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

type fixture struct {
	handler *Handler
	store   *calendarapp.Store
	audit   *recordingAudit
	kv      *memory.KVStore
}

func newFixture(t *testing.T, seed bool, details calendarapp.BookingDetailSource) fixture {
	t.Helper()
	payload := ""
	if seed {
		payload = stationsFixture
	}
	return newFixtureWith(t, payload, details)
}

func newFixtureWith(t *testing.T, payload string, details calendarapp.BookingDetailSource) fixture {
	t.Helper()
	seed := payload != ""
	logger := log.New(io.Discard, "", 0)
	kv := memory.NewKVStore()
	if seed {
		if err := kv.Set(context.Background(), calendarapp.StationsKey, payload); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	cache, err := calendarapp.NewStationCache(kv, logger)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	store, err := calendarapp.NewStore(cache, failingSource{}, nil, fixedClock{now: time.Date(2025, time.April, 9, 10, 0, 0, 0, time.UTC)}, logger)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if seed {
		if err := store.LoadStations(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	recorder := &recordingAudit{}
	handler, err := NewHandler(store, details, recorder, logger)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	handler.now = func() time.Time { return time.Date(2025, time.April, 9, 12, 0, 0, 0, time.UTC) }
	return fixture{handler: handler, store: store, audit: recorder, kv: kv}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	f.handler.Register(mux)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestCalendarView(t *testing.T) {
	f := newFixture(t, true, nil)
	resp := f.do(t, http.MethodGet, "/api/v1/calendar", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	view := decode[calendarView](t, resp)
	if view.SelectedStationID == nil || *view.SelectedStationID != "berlin-mitte" {
		t.Fatalf("unexpected selection %v", view.SelectedStationID)
	}
	if view.WeekStart != "2025-04-07" || view.RangeLabel != "Apr 7–Apr 13, 2025" {
		t.Fatalf("unexpected week %s %q", view.WeekStart, view.RangeLabel)
	}
	if len(view.Days) != 7 || view.Days[0].Weekday != "Monday" {
		t.Fatalf("unexpected days %+v", view.Days)
	}
	if len(view.Days[0].Edges) != 1 || view.Days[0].Edges[0].Edge != calendar.EdgeStart {
		t.Fatalf("expected monday start edge, got %+v", view.Days[0].Edges)
	}
	if string(view.Days[0].Edges[0].Extra["vehicle"]) != `"VW ID.3"` {
		t.Fatalf("expected passthrough field, got %+v", view.Days[0].Edges[0].Extra)
	}
	if len(view.Days[4].Edges) != 2 {
		t.Fatalf("expected two edges on friday, got %d", len(view.Days[4].Edges))
	}
	if view.Error != nil || view.Loading {
		t.Fatalf("unexpected state error=%v loading=%v", view.Error, view.Loading)
	}
	if !strings.Contains(resp.Body.String(), `"_edge":"start"`) {
		t.Fatalf("expected edge tag in payload: %s", resp.Body.String())
	}
}

func TestLoadFailure(t *testing.T) {
	f := newFixture(t, false, nil)
	resp := f.do(t, http.MethodPost, "/api/v1/calendar/load", "")
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := decode[errorResponse](t, resp)
	if body.Error != calendarapp.LoadErrorMessage {
		t.Fatalf("unexpected error %q", body.Error)
	}
	view := decode[calendarView](t, f.do(t, http.MethodGet, "/api/v1/calendar", ""))
	if view.Error == nil || *view.Error != calendarapp.LoadErrorMessage {
		t.Fatalf("expected error in snapshot")
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "calendar.load" {
		t.Fatalf("expected load audit entry, got %+v", f.audit.entries)
	}
}

func TestLoadFromCache(t *testing.T) {
	f := newFixture(t, true, nil)
	resp := f.do(t, http.MethodPost, "/api/v1/calendar/load", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from cache hit, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDayEndpoint(t *testing.T) {
	f := newFixture(t, true, nil)

	resp := f.do(t, http.MethodGet, "/api/v1/calendar/days/2025-04-11", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	day := decode[dayResponse](t, resp)
	if len(day.Edges) != 2 || day.Edges[0].Edge != calendar.EdgeStart || day.Edges[1].Edge != calendar.EdgeEnd {
		t.Fatalf("unexpected edges %+v", day.Edges)
	}
	if len(day.Overlapping) != 1 {
		t.Fatalf("expected one overlapping booking, got %d", len(day.Overlapping))
	}

	day = decode[dayResponse](t, f.do(t, http.MethodGet, "/api/v1/calendar/days/2025-04-08", ""))
	if len(day.Edges) != 0 || len(day.Overlapping) != 1 {
		t.Fatalf("expected mid-booking day without edges, got %+v", day)
	}

	if resp := f.do(t, http.MethodGet, "/api/v1/calendar/days/08.04.2025", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad key, got %d", resp.Code)
	}
}

func TestReschedule(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		body      string
		want      int
		wantStart string
		wantEnd   string
	}{
		{"start clamps end", "b-3", `{"which":"start","target_key":"2025-08-20"}`, http.StatusOK, "2025-08-20T09:00:00.000Z", "2025-08-20T09:00:00.000Z"},
		{"same keeps hours", "b-3", `{"which":"same","target_key":"2025-08-15"}`, http.StatusOK, "2025-08-15T09:00:00.000Z", "2025-08-15T12:00:00.000Z"},
		{"coarse start", "b-3", `{"edge":"start","new_date":"2025-08-09T12:00:00Z"}`, http.StatusOK, "2025-08-09T09:00:00.000Z", "2025-08-10T12:00:00.000Z"},
		{"coarse fallback to end", "b-3", `{"edge":"pickup","new_date":"2025-08-05"}`, http.StatusOK, "2025-08-05T12:00:00.000Z", "2025-08-05T12:00:00.000Z"},
		{"invalid edge", "b-3", `{"which":"middle","target_key":"2025-08-20"}`, http.StatusBadRequest, "", ""},
		{"invalid target", "b-3", `{"which":"end","target_key":"2025/08/20"}`, http.StatusBadRequest, "", ""},
		{"invalid new date", "b-3", `{"edge":"end","new_date":"soon"}`, http.StatusBadRequest, "", ""},
		{"empty body", "b-3", `{}`, http.StatusBadRequest, "", ""},
		{"bad json", "b-3", `{`, http.StatusBadRequest, "", ""},
		{"unknown booking", "nope", `{"which":"start","target_key":"2025-08-20"}`, http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true, nil)
			resp := f.do(t, http.MethodPatch, "/api/v1/bookings/"+tt.id, tt.body)
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
			if tt.want != http.StatusOK {
				if len(f.audit.entries) != 0 {
					t.Fatalf("expected no audit entry on rejection")
				}
				return
			}
			var body map[string]any
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["startDate"] != tt.wantStart || body["endDate"] != tt.wantEnd {
				t.Fatalf("got %v..%v, want %s..%s", body["startDate"], body["endDate"], tt.wantStart, tt.wantEnd)
			}
			if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "booking.reschedule" || f.audit.entries[0].StationID != "berlin-mitte" {
				t.Fatalf("unexpected audit entries %+v", f.audit.entries)
			}
			raw, _, _ := f.kv.Get(context.Background(), calendarapp.StationsKey)
			if !strings.Contains(raw, tt.wantStart) {
				t.Fatalf("expected persisted move in cache")
			}
		})
	}
}

func TestBookingLookup(t *testing.T) {
	f := newFixture(t, true, nil)
	resp := f.do(t, http.MethodGet, "/api/v1/bookings/h-1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	ref := decode[calendar.BookingRef](t, resp)
	if ref.Station.ID != "hamburg" || ref.Booking.ID != "h-1" {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if resp := f.do(t, http.MethodGet, "/api/v1/bookings/nope", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodDelete, "/api/v1/bookings/h-1", ""); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodGet, "/api/v1/bookings/h-1/history", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestBookingDetail(t *testing.T) {
	detail := &calendar.Booking{ID: "b-1", CustomerName: "Ada", PickupReturnStationID: "berlin-mitte"}

	f := newFixture(t, true, stubDetails{detail: detail})
	resp := f.do(t, http.MethodGet, "/api/v1/bookings/b-1/detail", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"customerName":"Ada"`) {
		t.Fatalf("unexpected detail response %d %s", resp.Code, resp.Body.String())
	}
	if resp := f.do(t, http.MethodGet, "/api/v1/bookings/b-2/detail", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	f = newFixture(t, true, stubDetails{err: errors.New("timeout")})
	if resp := f.do(t, http.MethodGet, "/api/v1/bookings/b-1/detail", ""); resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	f = newFixture(t, true, nil)
	if resp := f.do(t, http.MethodGet, "/api/v1/bookings/b-1/detail", ""); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestWeekNavigation(t *testing.T) {
	f := newFixture(t, true, nil)
	view := decode[calendarView](t, f.do(t, http.MethodPost, "/api/v1/calendar/week/next", ""))
	if view.WeekStart != "2025-04-14" {
		t.Fatalf("expected 2025-04-14, got %s", view.WeekStart)
	}
	f.do(t, http.MethodPost, "/api/v1/calendar/week/prev", "")
	view = decode[calendarView](t, f.do(t, http.MethodPost, "/api/v1/calendar/week/prev", ""))
	if view.WeekStart != "2025-03-31" {
		t.Fatalf("expected 2025-03-31, got %s", view.WeekStart)
	}
	view = decode[calendarView](t, f.do(t, http.MethodPost, "/api/v1/calendar/week/this", ""))
	if view.WeekStart != "2025-04-07" {
		t.Fatalf("expected 2025-04-07, got %s", view.WeekStart)
	}
	if resp := f.do(t, http.MethodPost, "/api/v1/calendar/week/later", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodGet, "/api/v1/calendar/week/next", ""); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestSelectStation(t *testing.T) {
	f := newFixture(t, true, nil)
	view := decode[calendarView](t, f.do(t, http.MethodPost, "/api/v1/calendar/station", `{"station_id":"hamburg"}`))
	if view.SelectedStation == nil || view.SelectedStation.Name != "Hamburg Hbf" {
		t.Fatalf("unexpected selection %+v", view.SelectedStation)
	}
	if len(view.Days[1].Edges) != 1 || view.Days[1].Edges[0].ID != "h-1" {
		t.Fatalf("expected hamburg edges on tuesday, got %+v", view.Days[1].Edges)
	}
	selected, ok, _ := f.kv.Get(context.Background(), calendarapp.SelectedStationKey)
	if !ok || selected != "hamburg" {
		t.Fatalf("expected persisted selection, got %q", selected)
	}

	stations := decode[[]calendar.Station](t, f.do(t, http.MethodGet, "/api/v1/stations", ""))
	if len(stations) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(stations))
	}
}

func TestExports(t *testing.T) {
	f := newFixture(t, true, nil)
	for _, tt := range []struct {
		format    string
		mediaType string
	}{
		{"csv", "text/csv; charset=utf-8"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"pdf", "application/pdf"},
		{"ics", "text/calendar; charset=utf-8"},
	} {
		resp := f.do(t, http.MethodGet, "/api/v1/calendar/export."+tt.format, "")
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.format, resp.Code)
		}
		if got := resp.Header().Get("Content-Type"); got != tt.mediaType {
			t.Fatalf("%s: unexpected content type %q", tt.format, got)
		}
		want := "attachment; filename=calendar_berlin-mitte_2025-04-07." + tt.format
		if got := resp.Header().Get("Content-Disposition"); got != want {
			t.Fatalf("%s: unexpected disposition %q", tt.format, got)
		}
		if resp.Body.Len() == 0 {
			t.Fatalf("%s: empty body", tt.format)
		}
	}
	if resp := f.do(t, http.MethodGet, "/api/v1/calendar/export.docx", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown format, got %d", resp.Code)
	}

	f.store.SetStation(context.Background(), "")
	if resp := f.do(t, http.MethodGet, "/api/v1/calendar/export.csv", ""); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 without selection, got %d", resp.Code)
	}
}

func TestExportFilenameIsQuoted(t *testing.T) {
	f := newFixtureWith(t, `[{"id":"west end;x","name":"West End","bookings":[]}]`, nil)
	resp := f.do(t, http.MethodGet, "/api/v1/calendar/export.csv", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	disposition, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("parse disposition %q: %v", resp.Header().Get("Content-Disposition"), err)
	}
	if disposition != "attachment" || params["filename"] != "calendar_west end;x_2025-04-07.csv" {
		t.Fatalf("unexpected disposition %q %v", disposition, params)
	}
}

func TestNewHandlerNilStore(t *testing.T) {
	if _, err := NewHandler(nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}
