package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

var bookingsTracer = otel.Tracer("clinic.internal.bookings")

const maxIdentifierAttempts = 5

// Notifier is told about ledger changes after they are persisted.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b Booking) error
	BookingCancelled(ctx context.Context, b Booking) error
}

// Recorder receives ledger outcome counts.
type Recorder interface {
	ObserveBooking(result string)
	ObserveCancellation(result string)
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier attaches a post-commit notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator overrides confirmation code generation.
func WithCodeGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

// Service is the booking ledger: it creates, cancels and looks up bookings.
type Service struct {
	store    Store
	notifier Notifier
	recorder Recorder
	logger   *logging.Logger
	now      func() time.Time
	newCode  func() string

	idMu   sync.Mutex
	lastID int64
}

// NewService constructs a ledger over store.
func NewService(store Store, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("bookings: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:   store,
		logger:  logger,
		now:     time.Now,
		newCode: NewConfirmationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewConfirmationCode returns six upper-case hex characters drawn from a random UUID.
func NewConfirmationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// nextBookingID returns "APPT-<unix millis>", bumped so ids issued by this process are strictly increasing.
func (s *Service) nextBookingID(now time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	ms := now.UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.lastID = ms
	return fmt.Sprintf("APPT-%d", ms)
}

// Book validates req and appends a confirmed booking.
// It returns ErrSlotTaken when the doctor/date/start time is already held.
func (s *Service) Book(ctx context.Context, req Request) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()
	span.SetAttributes(
		attribute.Int("clinic.doctor_id", req.DoctorID),
		attribute.String("clinic.date", req.Date),
		attribute.String("clinic.start_time", req.StartTime),
	)

	if err := req.Validate(); err != nil {
		s.observeBooking("invalid")
		return nil, err
	}

	var (
		booking Booking
		err     error
	)
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		now := s.now().UTC()
		booking = Booking{
			BookingID:        s.nextBookingID(now),
			ConfirmationCode: s.newCode(),
			Status:           StatusConfirmed,
			Date:             req.Date,
			StartTime:        req.StartTime,
			AppointmentType:  strings.TrimSpace(req.AppointmentType),
			DoctorID:         req.DoctorID,
			DoctorName:       req.DoctorName,
			PatientName:      strings.TrimSpace(req.PatientName),
			PatientEmail:     strings.TrimSpace(req.PatientEmail),
			PatientPhone:     strings.TrimSpace(req.PatientPhone),
			Reason:           strings.TrimSpace(req.Reason),
			CreatedAt:        now,
		}
		err = s.store.Append(ctx, booking)
		if !errors.Is(err, ErrDuplicateID) {
			break
		}
		s.logger.Debug("booking identifier collision, redrawing", "booking_id", booking.BookingID, "attempt", attempt+1)
	}
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotTaken) {
			s.observeBooking("slot_taken")
			return nil, err
		}
		s.observeBooking("error")
		return nil, fmt.Errorf("bookings: append: %w", err)
	}

	s.observeBooking("confirmed")
	s.logger.Info("booking confirmed",
		"booking_id", booking.BookingID,
		"doctor_id", booking.DoctorID,
		"date", booking.Date,
		"start_time", booking.StartTime,
	)
	if s.notifier != nil {
		if nerr := s.notifier.BookingConfirmed(ctx, booking); nerr != nil {
			s.logger.Warn("booking confirmation notification failed", "booking_id", booking.BookingID, "error", nerr)
		}
	}
	return &booking, nil
}

// Cancel flips a booking to cancelled. Cancelling an already-cancelled booking is a no-op
// reporting "Already cancelled". ref may be a booking id or confirmation code.
func (s *Service) Cancel(ctx context.Context, ref string) (*CancelResult, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.booking_ref", ref))

	existing, err := s.store.Get(ctx, ref)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrBookingNotFound) {
			s.observeCancellation("not_found")
			return nil, err
		}
		s.observeCancellation("error")
		return nil, fmt.Errorf("bookings: load for cancel: %w", err)
	}
	if existing.Status == StatusCancelled {
		s.observeCancellation("already_cancelled")
		return &CancelResult{BookingID: existing.BookingID, Status: StatusCancelled, Message: MessageAlreadyCancelled}, nil
	}

	updated, err := s.store.SetStatus(ctx, existing.BookingID, StatusCancelled, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		s.observeCancellation("error")
		return nil, fmt.Errorf("bookings: cancel: %w", err)
	}

	s.observeCancellation("cancelled")
	s.logger.Info("booking cancelled", "booking_id", updated.BookingID)
	if s.notifier != nil {
		if nerr := s.notifier.BookingCancelled(ctx, updated); nerr != nil {
			s.logger.Warn("booking cancellation notification failed", "booking_id", updated.BookingID, "error", nerr)
		}
	}
	return &CancelResult{BookingID: updated.BookingID, Status: StatusCancelled, Message: MessageCancelled}, nil
}

// GetByConfirmation returns the booking whose confirmation code or booking id equals code.
func (s *Service) GetByConfirmation(ctx context.Context, code string) (*Booking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrBookingNotFound
	}
	b, err := s.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("bookings: lookup: %w", err)
	}
	return &b, nil
}

// ListForDoctorDate returns every booking, of any status, held by the doctor on date.
func (s *Service) ListForDoctorDate(ctx context.Context, doctorID int, date string) ([]Booking, error) {
	out, err := s.store.ListForDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	return out, nil
}

func (s *Service) observeBooking(result string) {
	if s.recorder != nil {
		s.recorder.ObserveBooking(result)
	}
}

func (s *Service) observeCancellation(result string) {
	if s.recorder != nil {
		s.recorder.ObserveCancellation(result)
	}
}
