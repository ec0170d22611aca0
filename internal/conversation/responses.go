package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
)

// Action names carried in the "action" field of every response.
const (
	ActionReply            = "reply"
	ActionDoctors          = "doctors"
	ActionSlots            = "slots"
	ActionBookingConfirmed = "booking_confirmed"
)

// Response is the closed set of turn outcomes: Reply, DoctorsResponse, SlotsResponse
// and BookingConfirmed. Each marshals with an "action" discriminator.
type Response interface {
	Action() string
	Text() string
	isResponse()
}

// Reply is a plain conversational message.
type Reply struct {
	Message string
}

// DoctorsResponse offers doctors to choose from.
type DoctorsResponse struct {
	Message string
	Doctors []availability.DoctorSummary
}

// SlotsResponse offers time slots with the chosen doctor.
type SlotsResponse struct {
	Message string
	Slots   []availability.TimeSlot
}

// BookingConfirmed carries the created booking.
type BookingConfirmed struct {
	Message string
	Details bookings.Booking
}

func (Reply) Action() string            { return ActionReply }
func (DoctorsResponse) Action() string  { return ActionDoctors }
func (SlotsResponse) Action() string    { return ActionSlots }
func (BookingConfirmed) Action() string { return ActionBookingConfirmed }

func (r Reply) Text() string            { return r.Message }
func (r DoctorsResponse) Text() string  { return r.Message }
func (r SlotsResponse) Text() string    { return r.Message }
func (r BookingConfirmed) Text() string { return r.Message }

func (Reply) isResponse()            {}
func (DoctorsResponse) isResponse()  {}
func (SlotsResponse) isResponse()    {}
func (BookingConfirmed) isResponse() {}

// MarshalJSON implements json.Marshaler.
func (r Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action  string `json:"action"`
		Message string `json:"message"`
	}{ActionReply, r.Message})
}

// MarshalJSON implements json.Marshaler.
func (r DoctorsResponse) MarshalJSON() ([]byte, error) {
	doctors := r.Doctors
	if doctors == nil {
		doctors = []availability.DoctorSummary{}
	}
	return json.Marshal(struct {
		Action  string                       `json:"action"`
		Message string                       `json:"message"`
		Doctors []availability.DoctorSummary `json:"doctors"`
	}{ActionDoctors, r.Message, doctors})
}

// MarshalJSON implements json.Marshaler.
func (r SlotsResponse) MarshalJSON() ([]byte, error) {
	slots := r.Slots
	if slots == nil {
		slots = []availability.TimeSlot{}
	}
	return json.Marshal(struct {
		Action  string                  `json:"action"`
		Message string                  `json:"message"`
		Slots   []availability.TimeSlot `json:"slots"`
	}{ActionSlots, r.Message, slots})
}

// MarshalJSON implements json.Marshaler.
func (r BookingConfirmed) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action  string           `json:"action"`
		Message string           `json:"message"`
		Details bookings.Booking `json:"details"`
	}{ActionBookingConfirmed, r.Message, r.Details})
}

// DecodeResponse parses a marshalled Response back into its variant.
func DecodeResponse(data []byte) (Response, error) {
	var envelope struct {
		Action  string                       `json:"action"`
		Message string                       `json:"message"`
		Doctors []availability.DoctorSummary `json:"doctors"`
		Slots   []availability.TimeSlot      `json:"slots"`
		Details bookings.Booking             `json:"details"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("conversation: decode response: %w", err)
	}
	switch envelope.Action {
	case ActionReply:
		return Reply{Message: envelope.Message}, nil
	case ActionDoctors:
		return DoctorsResponse{Message: envelope.Message, Doctors: envelope.Doctors}, nil
	case ActionSlots:
		return SlotsResponse{Message: envelope.Message, Slots: envelope.Slots}, nil
	case ActionBookingConfirmed:
		return BookingConfirmed{Message: envelope.Message, Details: envelope.Details}, nil
	default:
		return nil, fmt.Errorf("conversation: unknown response action %q", envelope.Action)
	}
}
