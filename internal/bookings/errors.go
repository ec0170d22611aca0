package bookings

import "errors"

var (
	// ErrBookingNotFound indicates no booking matches the given id or confirmation code.
	ErrBookingNotFound = errors.New("bookings: booking not found")
	// ErrSlotTaken indicates another booking already holds the doctor/date/start time.
	ErrSlotTaken = errors.New("bookings: slot already booked")
	// ErrDuplicateID indicates the generated booking id or confirmation code already exists.
	ErrDuplicateID = errors.New("bookings: duplicate booking identifier")
	// ErrInvalidRequest wraps payload validation failures.
	ErrInvalidRequest = errors.New("bookings: invalid request")
)
