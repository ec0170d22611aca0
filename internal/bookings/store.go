package bookings

import (
	"context"
	"time"
)

// Store persists the booking ledger.
//
// Append must check and insert atomically: it returns ErrSlotTaken when any booking (regardless
// of status) already holds the same doctor, date and start time, and ErrDuplicateID when the
// booking id or confirmation code is already used.
type Store interface {
	Append(ctx context.Context, b Booking) error
	// Get looks a booking up by confirmation code or booking id.
	Get(ctx context.Context, ref string) (Booking, error)
	SetStatus(ctx context.Context, bookingID string, status Status, at time.Time) (Booking, error)
	ListForDoctorDate(ctx context.Context, doctorID int, date string) ([]Booking, error)
}
