package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/clinic-scheduling-agent/internal/dates"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the ledger in the bookings table. The unique index on
// (doctor_id, appt_date, start_time) makes check-and-append a single statement.
type PostgresStore struct {
	db pgQuerier
}

// NewPostgresStore creates a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db pgQuerier) *PostgresStore {
	if db == nil {
		panic("bookings: querier required")
	}
	return &PostgresStore{db: db}
}

const bookingColumns = `booking_id, confirmation_code, status, appt_date, start_time, appointment_type, doctor_id, doctor_name, patient_name, patient_email, patient_phone, reason, created_at, cancelled_at`

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, b Booking) error {
	day, err := time.Parse(dates.Layout, b.Date)
	if err != nil {
		return fmt.Errorf("bookings: invalid date %q: %w", b.Date, err)
	}
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (doctor_id, appt_date, start_time) DO NOTHING
	`
	ct, err := s.db.Exec(ctx, query,
		b.BookingID,
		b.ConfirmationCode,
		string(b.Status),
		day,
		b.StartTime,
		b.AppointmentType,
		b.DoctorID,
		b.DoctorName,
		b.PatientName,
		b.PatientEmail,
		b.PatientPhone,
		b.Reason,
		b.CreatedAt,
		b.CancelledAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSlotTaken
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, ref string) (Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE confirmation_code = $1 OR booking_id = $1
		ORDER BY created_at
		LIMIT 1`
	b, err := scanBooking(s.db.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrBookingNotFound
		}
		return Booking{}, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

// SetStatus implements Store.
func (s *PostgresStore) SetStatus(ctx context.Context, bookingID string, status Status, at time.Time) (Booking, error) {
	var cancelledAt *time.Time
	if status == StatusCancelled {
		cancelledAt = &at
	}
	query := `UPDATE bookings SET status = $2, cancelled_at = COALESCE($3, cancelled_at)
		WHERE booking_id = $1
		RETURNING ` + bookingColumns
	b, err := scanBooking(s.db.QueryRow(ctx, query, bookingID, string(status), cancelledAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, ErrBookingNotFound
		}
		return Booking{}, fmt.Errorf("bookings: update status failed: %w", err)
	}
	return b, nil
}

// ListForDoctorDate implements Store.
func (s *PostgresStore) ListForDoctorDate(ctx context.Context, doctorID int, date string) ([]Booking, error) {
	day, err := time.Parse(dates.Layout, date)
	if err != nil {
		return nil, nil
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE doctor_id = $1 AND appt_date = $2
		ORDER BY start_time`
	rows, err := s.db.Query(ctx, query, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	return out, nil
}

func scanBooking(row pgx.Row) (Booking, error) {
	var (
		b      Booking
		status string
		day    time.Time
	)
	if err := row.Scan(
		&b.BookingID,
		&b.ConfirmationCode,
		&status,
		&day,
		&b.StartTime,
		&b.AppointmentType,
		&b.DoctorID,
		&b.DoctorName,
		&b.PatientName,
		&b.PatientEmail,
		&b.PatientPhone,
		&b.Reason,
		&b.CreatedAt,
		&b.CancelledAt,
	); err != nil {
		return Booking{}, err
	}
	b.Status = Status(status)
	b.Date = day.Format(dates.Layout)
	return b, nil
}
