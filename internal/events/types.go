package events

import "time"

// BookingConfirmedV1 is emitted once a slot has been appended to the ledger.
type BookingConfirmedV1 struct {
	BookingID        string    `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	DoctorID         int       `json:"doctor_id"`
	DoctorName       string    `json:"doctor_name,omitempty"`
	AppointmentType  string    `json:"appointment_type"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	PatientEmail     string    `json:"patient_email,omitempty"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

func (BookingConfirmedV1) EventType() string { return "scheduling.booking.confirmed.v1" }

// BookingCancelledV1 is emitted when a booking transitions to cancelled.
type BookingCancelledV1 struct {
	BookingID        string    `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	DoctorID         int       `json:"doctor_id"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	CancelledAt      time.Time `json:"cancelled_at"`
}

func (BookingCancelledV1) EventType() string { return "scheduling.booking.cancelled.v1" }
