package http

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"rental-calendar/internal/audit"
	"rental-calendar/internal/auth"
	calendarapp "rental-calendar/internal/calendar/application"
	calendar "rental-calendar/internal/calendar/domain"
	"rental-calendar/internal/calendar/interfaces/export"
	"rental-calendar/internal/observability/metrics"
)

const (
	calendarPath  = "/api/v1/calendar"
	stationsPath  = "/api/v1/stations"
	bookingsPath  = "/api/v1/bookings/"
	exportPrefix  = "/api/v1/calendar/export."
	daysPrefix    = "/api/v1/calendar/days/"
	weekPrefix    = "/api/v1/calendar/week/"
	maxBodyBytes  = 1 << 16
	contentType   = "Content-Type"
	jsonMediaType = "application/json"
)

// Handler serves the calendar endpoints.
type Handler struct {
	store       *calendarapp.Store
	details     calendarapp.BookingDetailSource
	auditLogger audit.Logger
	logger      *log.Logger
	now         func() time.Time
}

// NewHandler constructs a Handler. details and auditLogger may be nil.
func NewHandler(store *calendarapp.Store, details calendarapp.BookingDetailSource, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if store == nil {
		return nil, errors.New("calendar handler: nil store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		store:       store,
		details:     details,
		auditLogger: auditLogger,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(calendarPath, h)
	mux.Handle(calendarPath+"/", h)
	mux.Handle(stationsPath, h)
	mux.Handle(bookingsPath, h)
}

// ServeHTTP routes calendar requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == calendarPath:
		h.requireMethod(w, r, http.MethodGet, h.handleCalendar)
	case path == calendarPath+"/load":
		h.requireMethod(w, r, http.MethodPost, h.handleLoad)
	case path == calendarPath+"/station":
		h.requireMethod(w, r, http.MethodPost, h.handleStation)
	case path == stationsPath:
		h.requireMethod(w, r, http.MethodGet, h.handleStations)
	case strings.HasPrefix(path, weekPrefix):
		h.requireMethod(w, r, http.MethodPost, h.handleWeek)
	case strings.HasPrefix(path, daysPrefix):
		h.requireMethod(w, r, http.MethodGet, h.handleDay)
	case strings.HasPrefix(path, exportPrefix):
		h.requireMethod(w, r, http.MethodGet, h.handleExport)
	case strings.HasPrefix(path, bookingsPath):
		h.handleBooking(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) requireMethod(w http.ResponseWriter, r *http.Request, method string, next func(http.ResponseWriter, *http.Request)) {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next(w, r)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildCalendarView(h.store.Snapshot()))
}

func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	err := h.store.LoadStations(r.Context())
	h.audit(r, "calendar.load", "calendar", "", "", map[string]any{"ok": err == nil})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: h.store.Error()})
		return
	}
	writeJSON(w, http.StatusOK, buildCalendarView(h.store.Snapshot()))
}

func (h *Handler) handleStations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stations())
}

func (h *Handler) handleStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	h.store.SetStation(r.Context(), req.StationID)
	h.audit(r, "calendar.select_station", "station", req.StationID, req.StationID, nil)
	writeJSON(w, http.StatusOK, buildCalendarView(h.store.Snapshot()))
}

func (h *Handler) handleWeek(w http.ResponseWriter, r *http.Request) {
	direction := strings.TrimPrefix(r.URL.Path, weekPrefix)
	switch direction {
	case "prev":
		h.store.PrevWeek()
	case "next":
		h.store.NextWeek()
	case "this":
		h.store.ThisWeek()
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, buildCalendarView(h.store.Snapshot()))
}

func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, daysPrefix)
	day, err := noonOf(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Day:         key,
		Edges:       h.store.BookingsForDay(day),
		Overlapping: h.store.BookingsOverlappingDay(day),
	})
}

func (h *Handler) handleBooking(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, bookingsPath), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		if parts[1] != "detail" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.requireMethod(w, r, http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
			h.handleDetail(w, r, id)
		})
		return
	}

	switch r.Method {
	case http.MethodGet:
		ref, ok := h.store.BookingByID(id)
		if !ok {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ref)
	case http.MethodPatch:
		h.handleReschedule(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request, id string) {
	if h.details == nil {
		http.Error(w, "booking details unavailable", http.StatusServiceUnavailable)
		return
	}
	detail, err := h.details.FetchBookingDetail(r.Context(), id)
	if err != nil {
		h.logger.Printf("calendar handler: booking detail %s: %v", id, err)
		http.Error(w, "booking details unavailable", http.StatusBadGateway)
		return
	}
	if detail == nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleReschedule(w http.ResponseWriter, r *http.Request, id string) {
	var req rescheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		booking calendar.Booking
		err     error
	)
	switch {
	case req.Which != "" || req.TargetKey != "":
		which, parseErr := calendar.ParseEdge(req.Which)
		if parseErr != nil {
			http.Error(w, parseErr.Error(), http.StatusBadRequest)
			return
		}
		booking, err = h.store.RescheduleBookingEdge(r.Context(), calendarapp.RescheduleEdgeRequest{
			ID:        id,
			Which:     which,
			TargetKey: req.TargetKey,
		})
	case req.NewDate != "":
		newDate, parseErr := calendar.ParseInstant(req.NewDate)
		if parseErr != nil {
			http.Error(w, parseErr.Error(), http.StatusBadRequest)
			return
		}
		booking, err = h.store.RescheduleBooking(r.Context(), calendarapp.RescheduleRequest{
			ID:      id,
			Edge:    req.Edge,
			NewDate: newDate,
		})
	default:
		http.Error(w, "which/target_key or edge/new_date is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	h.audit(r, "booking.reschedule", "booking", booking.ID, booking.PickupReturnStationID, req)
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.TrimPrefix(r.URL.Path, exportPrefix)
	started := time.Now()

	station, ok := h.store.SelectedStation()
	if !ok {
		metrics.ObserveExport(format, metrics.ResultSkipped, time.Since(started))
		respondError(w, calendar.ErrNoStationSelected)
		return
	}
	week := export.BuildWeek(station, h.store.WeekStart(), h.now())

	var (
		payload   []byte
		mediaType string
		err       error
	)
	switch format {
	case "csv":
		payload, err = export.BuildCSV(week)
		mediaType = "text/csv; charset=utf-8"
	case "xlsx":
		payload, err = export.BuildXLSX(week)
		mediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = export.BuildPDF(week)
		mediaType = "application/pdf"
	case "ics":
		payload = export.BuildICS(week)
		mediaType = "text/calendar; charset=utf-8"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(started))
		h.logger.Printf("calendar handler: export %s: %v", format, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(started))

	w.Header().Set(contentType, mediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": week.Filename(format)}))
	_, _ = w.Write(payload)
}

func (h *Handler) audit(r *http.Request, action, resourceType, resourceID, stationID string, meta any) {
	if h.auditLogger == nil {
		return
	}
	var payload json.RawMessage
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			payload = raw
		}
	}
	identity := auth.IdentityFromContext(r.Context())
	err := h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     identity.TenantID,
		Actor:        identity.Subject,
		Role:         string(identity.Role),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		StationID:    stationID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		h.logger.Printf("calendar handler: audit %s: %v", action, err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidEdge), errors.Is(err, calendar.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, calendar.ErrBookingNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, calendar.ErrNoStationSelected):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, calendar.ErrLoadFailure):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(contentType, jsonMediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
