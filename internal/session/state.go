// Package session stores per-conversation dialog state and serializes turns for a session.
package session

import (
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
)

// DialogState is the position of a conversation in the booking pipeline.
type DialogState string

// Pipeline states in order, followed by the cancellation side channel.
// StateNew is the fresh (null) state.
const (
	StateNew                     DialogState = ""
	StateAwaitingReason          DialogState = "awaiting_reason"
	StateAwaitingAppointmentType DialogState = "awaiting_appointment_type"
	StateAwaitingDate            DialogState = "awaiting_date"
	StateAwaitingTime            DialogState = "awaiting_time"
	StateAwaitingDoctor          DialogState = "awaiting_doctor"
	StateAwaitingSlot            DialogState = "awaiting_slot"
	StateAwaitingName            DialogState = "awaiting_name"
	StateAwaitingPhone           DialogState = "awaiting_phone"
	StateAwaitingEmail           DialogState = "awaiting_email"
	StateAwaitingConfirm         DialogState = "awaiting_confirm"
	StateCompleted               DialogState = "completed"

	StateAwaitingCancelConfirm     DialogState = "awaiting_cancel_confirm"
	StateAwaitingCancellationCode  DialogState = "awaiting_cancellation_code"
	StateAwaitingCancelCodeConfirm DialogState = "awaiting_cancel_code_confirm"
)

// String renders StateNew as "null" for logs and metric labels.
func (d DialogState) String() string {
	if d == StateNew {
		return "null"
	}
	return string(d)
}

// Patient holds the contact details collected during booking.
type Patient struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// State is everything remembered about one chat session between turns.
type State struct {
	SessionID          string                       `json:"session_id"`
	DialogState        DialogState                  `json:"dialog_state,omitempty"`
	Reason             string                       `json:"reason,omitempty"`
	AppointmentType    string                       `json:"appointment_type,omitempty"`
	PreferredDate      string                       `json:"preferred_date,omitempty"`
	PreferredTimeOfDay string                       `json:"preferred_time_of_day,omitempty"`
	Doctor             *availability.DoctorSummary  `json:"doctor,omitempty"`
	SelectedSlot       string                       `json:"selected_slot,omitempty"`
	Patient            Patient                      `json:"patient"`
	Doctors            []availability.DoctorSummary `json:"doctors,omitempty"`
	AvailableSlots     []availability.TimeSlot      `json:"available_slots,omitempty"`
	LastBookingID      string                       `json:"last_booking_id,omitempty"`
	CancelTarget       *bookings.Booking            `json:"cancel_target,omitempty"`
	UpdatedAt          time.Time                    `json:"updated_at"`
}

// New returns a fresh state for id.
func New(id string) *State {
	return &State{SessionID: id}
}

// Clone returns a deep copy so stored state is never aliased by callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.Doctor != nil {
		d := *s.Doctor
		out.Doctor = &d
	}
	if s.Doctors != nil {
		out.Doctors = append([]availability.DoctorSummary(nil), s.Doctors...)
	}
	if s.AvailableSlots != nil {
		out.AvailableSlots = append([]availability.TimeSlot(nil), s.AvailableSlots...)
	}
	if s.CancelTarget != nil {
		b := *s.CancelTarget
		if b.CancelledAt != nil {
			ts := *b.CancelledAt
			b.CancelledAt = &ts
		}
		out.CancelTarget = &b
	}
	return &out
}
