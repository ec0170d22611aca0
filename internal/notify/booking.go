package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/internal/events"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// BookingNotifier emails patients about ledger changes and optionally publishes
// a booking event for downstream consumers.
type BookingNotifier struct {
	sender    EmailSender
	publisher events.Publisher
	clinic    string
	logger    *logging.Logger
	now       func() time.Time
}

// BookingNotifierOption customizes a BookingNotifier.
type BookingNotifierOption func(*BookingNotifier)

// WithPublisher publishes a booking event after each email attempt.
func WithPublisher(p events.Publisher) BookingNotifierOption {
	return func(n *BookingNotifier) { n.publisher = p }
}

// WithClinicName overrides the clinic name used in subjects and bodies.
func WithClinicName(name string) BookingNotifierOption {
	return func(n *BookingNotifier) {
		if strings.TrimSpace(name) != "" {
			n.clinic = strings.TrimSpace(name)
		}
	}
}

// WithNotifierClock overrides the clock stamped on published events.
func WithNotifierClock(now func() time.Time) BookingNotifierOption {
	return func(n *BookingNotifier) {
		if now != nil {
			n.now = now
		}
	}
}

// NewBookingNotifier wires sender into a bookings.Notifier.
func NewBookingNotifier(sender EmailSender, logger *logging.Logger, opts ...BookingNotifierOption) *BookingNotifier {
	if sender == nil {
		panic("notify: email sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	n := &BookingNotifier{
		sender: sender,
		clinic: DefaultFromName,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// BookingConfirmed emails the confirmation code to the patient.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	var errs []error
	if strings.TrimSpace(b.PatientEmail) != "" {
		if err := n.sender.Send(ctx, n.confirmationEmail(b)); err != nil {
			errs = append(errs, err)
		}
	}
	if n.publisher != nil {
		evt := events.BookingConfirmedV1{
			BookingID:        b.BookingID,
			ConfirmationCode: b.ConfirmationCode,
			DoctorID:         b.DoctorID,
			DoctorName:       b.DoctorName,
			AppointmentType:  b.AppointmentType,
			Date:             b.Date,
			StartTime:        b.StartTime,
			PatientEmail:     b.PatientEmail,
			ConfirmedAt:      n.now().UTC(),
		}
		if err := n.publish(ctx, b, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BookingCancelled tells the patient the appointment no longer stands.
func (n *BookingNotifier) BookingCancelled(ctx context.Context, b bookings.Booking) error {
	var errs []error
	if strings.TrimSpace(b.PatientEmail) != "" {
		if err := n.sender.Send(ctx, n.cancellationEmail(b)); err != nil {
			errs = append(errs, err)
		}
	}
	if n.publisher != nil {
		cancelledAt := n.now().UTC()
		if b.CancelledAt != nil {
			cancelledAt = b.CancelledAt.UTC()
		}
		evt := events.BookingCancelledV1{
			BookingID:        b.BookingID,
			ConfirmationCode: b.ConfirmationCode,
			DoctorID:         b.DoctorID,
			Date:             b.Date,
			StartTime:        b.StartTime,
			CancelledAt:      cancelledAt,
		}
		if err := n.publish(ctx, b, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *BookingNotifier) publish(ctx context.Context, b bookings.Booking, evt events.Event) error {
	env, err := events.NewEnvelope("booking:"+b.BookingID, b.ConfirmationCode, evt)
	if err != nil {
		return fmt.Errorf("notify: build %s envelope: %w", evt.EventType(), err)
	}
	if err := n.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("notify: publish %s: %w", env.EventType, err)
	}
	n.logger.Debug("booking event published", "booking_id", b.BookingID, "event_type", env.EventType, "event_id", env.EventID.String())
	return nil
}

func (n *BookingNotifier) confirmationEmail(b bookings.Booking) EmailMessage {
	doctor := b.DoctorName
	if doctor == "" {
		doctor = fmt.Sprintf("Doctor #%d", b.DoctorID)
	}
	lines := []string{
		fmt.Sprintf("Hi %s,", b.PatientName),
		"",
		fmt.Sprintf("Your appointment at %s is confirmed.", n.clinic),
		"",
		"Date: " + b.Date,
		"Time: " + b.StartTime,
		"Doctor: " + doctor,
		"Type: " + b.AppointmentType,
		"Confirmation code: " + b.ConfirmationCode,
		"",
		"Reply in chat with your confirmation code if you need to cancel.",
	}
	return EmailMessage{
		To:      b.PatientEmail,
		ToName:  b.PatientName,
		Subject: fmt.Sprintf("%s appointment confirmed: %s at %s", n.clinic, b.Date, b.StartTime),
		Body:    strings.Join(lines, "\n"),
		HTML:    htmlBody(lines),
	}
}

func (n *BookingNotifier) cancellationEmail(b bookings.Booking) EmailMessage {
	lines := []string{
		fmt.Sprintf("Hi %s,", b.PatientName),
		"",
		fmt.Sprintf("Your appointment on %s at %s (confirmation %s) has been cancelled.", b.Date, b.StartTime, b.ConfirmationCode),
		"",
		"If this was a mistake, you can book a new time in chat at any point.",
	}
	return EmailMessage{
		To:      b.PatientEmail,
		ToName:  b.PatientName,
		Subject: fmt.Sprintf("%s appointment cancelled: %s", n.clinic, b.Date),
		Body:    strings.Join(lines, "\n"),
		HTML:    htmlBody(lines),
	}
}

func htmlBody(lines []string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(line))
		sb.WriteString("</p>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

var _ bookings.Notifier = (*BookingNotifier)(nil)
