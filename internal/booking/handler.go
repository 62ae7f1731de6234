package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/catalog"
	"github.com/wolfman30/kims-booking/internal/slots"
	"github.com/wolfman30/kims-booking/internal/validation"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

// Locator resolves a client IP to coordinates.
type Locator interface {
	Locate(ctx context.Context, ip string) (catalog.Coordinates, bool)
}

// Handler exposes catalogs and booking sessions over HTTP.
type Handler struct {
	service *Service
	locator Locator
	logger  *logging.Logger
}

func NewHandler(service *Service, locator Locator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, locator: locator, logger: logger}
}

// SessionResponse is a flow plus the derived wizard state.
type SessionResponse struct {
	*Flow
	StageName  string   `json:"stage_name"`
	StageTitle string   `json:"stage_title"`
	CanAdvance bool     `json:"can_advance"`
	Missing    []string `json:"missing,omitempty"`
}

func newSessionResponse(f *Flow) SessionResponse {
	return SessionResponse{
		Flow:       f,
		StageName:  f.Stage.String(),
		StageTitle: f.Stage.Title(),
		CanAdvance: f.CanAdvance(),
		Missing:    f.Missing(),
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, catalog.ErrDepartmentNotFound),
		errors.Is(err, catalog.ErrHospitalNotFound),
		errors.Is(err, catalog.ErrDoctorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrStageIncomplete),
		errors.Is(err, ErrAlreadyConfirmed),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, ErrDateRequired):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrPastDate),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrLocationUnavailable),
		errors.Is(err, ErrInvalidStage),
		errors.Is(err, slots.ErrUnknownPeriod):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("booking request failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debug("failed to decode request", "error", err, "path", r.URL.Path)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) respondFlow(w http.ResponseWriter, r *http.Request, status int, f *Flow, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, newSessionResponse(f))
}

// ListDepartments handles GET /api/v1/departments?q=
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"departments": catalog.SearchDepartments(r.URL.Query().Get("q")),
	})
}

// ListHospitals handles GET /api/v1/hospitals?lat=&lng=. Without explicit
// coordinates the client IP is geolocated; when that fails too the static
// order is returned.
func (h *Handler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	origin, source := h.origin(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"hospitals":     h.service.Locations(r.Context(), origin),
		"origin":        origin,
		"origin_source": source,
	})
}

func (h *Handler) origin(r *http.Request) (*catalog.Coordinates, string) {
	q := r.URL.Query()
	if latStr, lngStr := q.Get("lat"), q.Get("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat == nil && errLng == nil {
			return &catalog.Coordinates{Lat: lat, Lng: lng}, "client"
		}
	}
	if h.locator == nil {
		return nil, "none"
	}
	if coords, ok := h.locator.Locate(r.Context(), clientIP(r)); ok {
		return &coords, "ip"
	}
	return nil, "none"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// DoctorAvailability handles GET /api/v1/doctors/availability?date=&department_id=
func (h *Handler) DoctorAvailability(w http.ResponseWriter, r *http.Request) {
	gen := h.service.Slots()
	date := gen.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := gen.ParseDate(raw)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}
	departmentID, ok := queryInt(w, r, "department_id")
	if !ok {
		return
	}

	schedules, err := h.service.DoctorAvailability(departmentID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    date.Format("2006-01-02"),
		"past":    gen.IsPastDate(date),
		"doctors": schedules,
	})
}

// Dates handles GET /api/v1/dates?start=&department_id=&days=
func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	gen := h.service.Slots()
	start := gen.Today()
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := gen.ParseDate(raw)
		if err != nil {
			http.Error(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	departmentID, ok := queryInt(w, r, "department_id")
	if !ok {
		return
	}
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}
	if days <= 0 || days > 31 {
		days = slots.DefaultQuickDates
	}

	summaries, err := h.service.Dates(departmentID, start, days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	doctors, _ := h.service.roster(departmentID)
	resp := map[string]any{"dates": summaries}
	if first, found := gen.FirstBookableDate(doctors, start, days); found {
		resp["first_available"] = first.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// EmailSuggestions handles GET /api/v1/email-suggestions?input=
func (h *Handler) EmailSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": validation.EmailSuggestions(r.URL.Query().Get("input")),
	})
}

func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, key+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// StartSession handles POST /api/v1/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Start(r.Context())
	h.respondFlow(w, r, http.StatusCreated, f, err)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.respondFlow(w, r, http.StatusOK, f, err)
}

// SelectDepartmentRequest is the body of PUT /sessions/{id}/department.
type SelectDepartmentRequest struct {
	DepartmentID int `json:"department_id"`
}

func (h *Handler) SelectDepartment(w http.ResponseWriter, r *http.Request) {
	var req SelectDepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.service.SelectDepartment(r.Context(), chi.URLParam(r, "id"), req.DepartmentID)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

// SelectLocationRequest is the body of PUT /sessions/{id}/location.
type SelectLocationRequest struct {
	HospitalID int `json:"hospital_id"`
}

func (h *Handler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	var req SelectLocationRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.service.SelectLocation(r.Context(), chi.URLParam(r, "id"), req.HospitalID)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

// SelectDateRequest is the body of PUT /sessions/{id}/date.
type SelectDateRequest struct {
	Date string `json:"date"`
}

func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req SelectDateRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := h.service.Slots().ParseDate(req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	f, err := h.service.SelectDate(r.Context(), chi.URLParam(r, "id"), date)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

// SelectSlotRequest is the body of PUT /sessions/{id}/slot.
type SelectSlotRequest struct {
	DoctorID int    `json:"doctor_id"`
	TimeSlot string `json:"time_slot"`
}

func (h *Handler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req SelectSlotRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.service.SelectSlot(r.Context(), chi.URLParam(r, "id"), req.DoctorID, req.TimeSlot)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

func (h *Handler) SubmitPatient(w http.ResponseWriter, r *http.Request) {
	var req validation.Patient
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.service.SubmitPatient(r.Context(), chi.URLParam(r, "id"), req)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

// GoToRequest is the body of PUT /sessions/{id}/stage.
type GoToRequest struct {
	Stage Stage `json:"stage"`
}

func (h *Handler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req GoToRequest
	if !h.decode(w, r, &req) {
		return
	}
	f, err := h.service.GoTo(r.Context(), chi.URLParam(r, "id"), req.Stage)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Advance(r.Context(), chi.URLParam(r, "id"))
	h.respondFlow(w, r, http.StatusOK, f, err)
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Back(r.Context(), chi.URLParam(r, "id"))
	h.respondFlow(w, r, http.StatusOK, f, err)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"), bookings.ChannelWizard)
	h.respondFlow(w, r, http.StatusOK, f, err)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Reset(r.Context(), chi.URLParam(r, "id"))
	h.respondFlow(w, r, http.StatusOK, f, err)
}

// Routes mounts the booking API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/departments", h.ListDepartments)
	r.Get("/hospitals", h.ListHospitals)
	r.Get("/doctors/availability", h.DoctorAvailability)
	r.Get("/dates", h.Dates)
	r.Get("/email-suggestions", h.EmailSuggestions)
	r.Post("/sessions", h.StartSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Put("/department", h.SelectDepartment)
		r.Put("/location", h.SelectLocation)
		r.Put("/date", h.SelectDate)
		r.Put("/slot", h.SelectSlot)
		r.Put("/patient", h.SubmitPatient)
		r.Put("/stage", h.GoTo)
		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		r.Post("/confirm", h.Confirm)
		r.Post("/reset", h.Reset)
	})
}
