package bookings

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/internal/dates"
)

// Status is the lifecycle state of a booking. Bookings are never deleted; cancelling flips the status.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking is a persisted appointment reservation.
type Booking struct {
	BookingID        string     `json:"booking_id"`
	ConfirmationCode string     `json:"confirmation_code"`
	Status           Status     `json:"status"`
	Date             string     `json:"date"`
	StartTime        string     `json:"start_time"`
	AppointmentType  string     `json:"appointment_type"`
	DoctorID         int        `json:"doctor_id"`
	DoctorName       string     `json:"doctor_name,omitempty"`
	PatientName      string     `json:"patient_name"`
	PatientEmail     string     `json:"patient_email"`
	PatientPhone     string     `json:"patient_phone"`
	Reason           string     `json:"reason"`
	CreatedAt        time.Time  `json:"created_at"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

// Request is the payload accepted by Service.Book.
type Request struct {
	DoctorID        int    `json:"doctor_id"`
	DoctorName      string `json:"doctor_name,omitempty"`
	AppointmentType string `json:"appointment_type"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	Reason          string `json:"reason"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	PatientPhone    string `json:"patient_phone"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks required fields and formats.
func (r Request) Validate() error {
	switch {
	case r.DoctorID <= 0:
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidRequest)
	case strings.TrimSpace(r.AppointmentType) == "":
		return fmt.Errorf("%w: appointment_type is required", ErrInvalidRequest)
	case strings.TrimSpace(r.PatientName) == "":
		return fmt.Errorf("%w: patient_name is required", ErrInvalidRequest)
	case strings.TrimSpace(r.PatientPhone) == "":
		return fmt.Errorf("%w: patient_phone is required", ErrInvalidRequest)
	case !emailPattern.MatchString(strings.TrimSpace(r.PatientEmail)):
		return fmt.Errorf("%w: patient_email is invalid", ErrInvalidRequest)
	}
	if _, err := time.Parse(dates.Layout, r.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if _, err := dates.ParseClock(r.StartTime); err != nil || len(r.StartTime) != 5 {
		return fmt.Errorf("%w: start_time must be HH:MM", ErrInvalidRequest)
	}
	return nil
}

// Cancel result messages.
const (
	MessageCancelled        = "Appointment cancelled successfully."
	MessageAlreadyCancelled = "Already cancelled"
)

// CancelResult reports the outcome of Service.Cancel.
type CancelResult struct {
	BookingID string `json:"booking_id"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
}

// AlreadyCancelled reports whether the booking was cancelled before this call.
func (r *CancelResult) AlreadyCancelled() bool {
	return r != nil && r.Message == MessageAlreadyCancelled
}

type slotKey struct {
	doctorID  int
	date      string
	startTime string
}

func (b Booking) slot() slotKey {
	return slotKey{doctorID: b.DoctorID, date: b.Date, startTime: b.StartTime}
}
