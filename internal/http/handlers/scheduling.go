package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

type slotResolver interface {
	ResolveDate(expr string) (string, bool)
	Check(ctx context.Context, date, appointmentType string, doctorID int) ([]availability.TimeSlot, error)
	Doctors(ctx context.Context, date, appointmentType string) ([]availability.DoctorSummary, error)
}

type schedulingLedger interface {
	Book(ctx context.Context, req bookings.Request) (*bookings.Booking, error)
	Cancel(ctx context.Context, ref string) (*bookings.CancelResult, error)
	GetByConfirmation(ctx context.Context, code string) (*bookings.Booking, error)
}

// SchedulingConfig wires the scheduling REST surface.
type SchedulingConfig struct {
	Slots  slotResolver
	Ledger schedulingLedger
	Logger *logging.Logger
}

// SchedulingHandler serves /api/calendly: doctors, availability, book, cancel and lookup.
type SchedulingHandler struct {
	slots  slotResolver
	ledger schedulingLedger
	logger *logging.Logger
}

func NewSchedulingHandler(cfg SchedulingConfig) *SchedulingHandler {
	if cfg.Slots == nil {
		panic("handlers: slot resolver cannot be nil")
	}
	if cfg.Ledger == nil {
		panic("handlers: ledger cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &SchedulingHandler{slots: cfg.Slots, ledger: cfg.Ledger, logger: cfg.Logger}
}

// Routes mounts the handler under a chi router.
func (h *SchedulingHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/doctors", h.Doctors)
	r.Get("/availability", h.Availability)
	r.Post("/book", h.Book)
	r.Patch("/bookings/{bookingID}/cancel", h.Cancel)
	r.Get("/bookings/{code}", h.Lookup)
	return r
}

type DoctorsResponse struct {
	Doctors []availability.DoctorSummary `json:"doctors"`
}

type AvailabilityResponse struct {
	Date           string                  `json:"date"`
	AvailableSlots []availability.TimeSlot `json:"available_slots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Doctors lists the doctors bookable on a date.
// Route: GET /api/calendly/doctors?date=&appointment_type=
func (h *SchedulingHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	date, apptType, ok := h.dateAndType(w, r)
	if !ok {
		return
	}
	doctors, err := h.slots.Doctors(r.Context(), date, apptType)
	if err != nil {
		h.logger.Error("list doctors failed", "date", date, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "availability lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, DoctorsResponse{Doctors: doctors})
}

// Availability lists every slot (booked or open) for a date.
// Route: GET /api/calendly/availability?date=&appointment_type=[&doctor_id=]
func (h *SchedulingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	date, apptType, ok := h.dateAndType(w, r)
	if !ok {
		return
	}
	doctorID := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("doctor_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "doctor_id must be a positive integer"})
			return
		}
		doctorID = id
	}
	slots, err := h.slots.Check(r.Context(), date, apptType, doctorID)
	if err != nil {
		h.logger.Error("availability check failed", "date", date, "doctor_id", doctorID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "availability lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{Date: date, AvailableSlots: slots})
}

// Book reserves a slot. The start time must be one of the doctor's slots for the type.
// Route: POST /api/calendly/book
func (h *SchedulingHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookings.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: strings.TrimPrefix(err.Error(), bookings.ErrInvalidRequest.Error()+": ")})
		return
	}

	slots, err := h.slots.Check(r.Context(), req.Date, req.AppointmentType, req.DoctorID)
	if err != nil {
		h.logger.Error("availability check before booking failed", "doctor_id", req.DoctorID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "availability lookup failed"})
		return
	}
	slot, found := findSlot(slots, req.StartTime)
	if !found {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start_time is not a slot offered by this doctor"})
		return
	}
	if !slot.Available {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot already booked"})
		return
	}
	if req.DoctorName == "" {
		req.DoctorName = slot.DoctorName
	}

	booking, err := h.ledger.Book(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, booking)
	case errors.Is(err, bookings.ErrSlotTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "slot already booked"})
	case errors.Is(err, bookings.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("booking failed", "doctor_id", req.DoctorID, "date", req.Date, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "booking failed"})
	}
}

// Cancel cancels by booking id or confirmation code.
// Route: PATCH /api/calendly/bookings/{bookingID}/cancel
func (h *SchedulingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(chi.URLParam(r, "bookingID"))
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "booking id is required"})
		return
	}
	result, err := h.ledger.Cancel(r.Context(), ref)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, bookings.ErrBookingNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "booking not found"})
	default:
		h.logger.Error("cancel failed", "booking_ref", ref, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "cancel failed"})
	}
}

// Lookup returns a booking by confirmation code or booking id.
// Route: GET /api/calendly/bookings/{code}
func (h *SchedulingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	booking, err := h.ledger.GetByConfirmation(r.Context(), code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, booking)
	case errors.Is(err, bookings.ErrBookingNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "booking not found"})
	default:
		h.logger.Error("booking lookup failed", "code", code, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "lookup failed"})
	}
}

func (h *SchedulingHandler) dateAndType(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("date"))
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date is required"})
		return "", "", false
	}
	date, ok := h.slots.ResolveDate(raw)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD, today, tomorrow or a weekday"})
		return "", "", false
	}
	apptType := strings.TrimSpace(q.Get("appointment_type"))
	if apptType == "" {
		apptType = "consultation"
	}
	return date, apptType, true
}

func findSlot(slots []availability.TimeSlot, start string) (availability.TimeSlot, bool) {
	for _, s := range slots {
		if s.StartTime == start {
			return s, true
		}
	}
	return availability.TimeSlot{}, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
