package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/internal/events"
)

type failingSender struct{ err error }

func (f failingSender) Send(ctx context.Context, msg EmailMessage) error { return f.err }

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(ctx context.Context, env events.Envelope) error { return f.err }

func sampleBooking() bookings.Booking {
	return bookings.Booking{
		BookingID:        "APPT-1741168800000",
		ConfirmationCode: "QX7K2P",
		Status:           bookings.StatusConfirmed,
		Date:             "2025-03-06",
		StartTime:        "09:00",
		AppointmentType:  "consultation",
		DoctorID:         1,
		DoctorName:       "Dr. Sarah Johnson",
		PatientName:      "Jane Doe",
		PatientEmail:     "jane@example.com",
		PatientPhone:     "5551234567",
		Reason:           "fever",
	}
}

func TestBookingNotifier_ConfirmedEmail(t *testing.T) {
	sender := NewStubEmailSender(nil)
	n := NewBookingNotifier(sender, nil)

	if err := n.BookingConfirmed(context.Background(), sampleBooking()); err != nil {
		t.Fatalf("BookingConfirmed failed: %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sent))
	}
	msg := sent[0]
	if msg.To != "jane@example.com" || msg.ToName != "Jane Doe" {
		t.Fatalf("unexpected recipient: %s <%s>", msg.ToName, msg.To)
	}
	if !strings.Contains(msg.Subject, "2025-03-06 at 09:00") {
		t.Fatalf("unexpected subject: %s", msg.Subject)
	}
	for _, want := range []string{"QX7K2P", "Dr. Sarah Johnson", "consultation"} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q: %s", want, msg.Body)
		}
	}
	if !strings.HasPrefix(msg.HTML, "<html>") {
		t.Fatalf("expected html body, got %s", msg.HTML)
	}
}

func TestBookingNotifier_CancelledEmail(t *testing.T) {
	sender := NewStubEmailSender(nil)
	n := NewBookingNotifier(sender, nil, WithClinicName("Northside Clinic"))

	b := sampleBooking()
	b.Status = bookings.StatusCancelled
	if err := n.BookingCancelled(context.Background(), b); err != nil {
		t.Fatalf("BookingCancelled failed: %v", err)
	}
	msg := sender.Sent()[0]
	if !strings.HasPrefix(msg.Subject, "Northside Clinic appointment cancelled") {
		t.Fatalf("unexpected subject: %s", msg.Subject)
	}
	if !strings.Contains(msg.Body, "has been cancelled") {
		t.Fatalf("unexpected body: %s", msg.Body)
	}
}

func TestBookingNotifier_SkipsMissingEmail(t *testing.T) {
	sender := NewStubEmailSender(nil)
	n := NewBookingNotifier(sender, nil)

	b := sampleBooking()
	b.PatientEmail = ""
	if err := n.BookingConfirmed(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.Sent()) != 0 {
		t.Fatal("expected no email without address")
	}
}

func TestBookingNotifier_EscapesHTML(t *testing.T) {
	sender := NewStubEmailSender(nil)
	n := NewBookingNotifier(sender, nil)

	b := sampleBooking()
	b.PatientName = "<script>x</script>"
	_ = n.BookingConfirmed(context.Background(), b)
	if strings.Contains(sender.Sent()[0].HTML, "<script>") {
		t.Fatal("expected patient name to be escaped")
	}
}

func TestBookingNotifier_PublishesEvents(t *testing.T) {
	fixed := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	pub := &events.MemoryPublisher{}
	n := NewBookingNotifier(NewStubEmailSender(nil), nil, WithPublisher(pub), WithNotifierClock(func() time.Time { return fixed }))

	b := sampleBooking()
	if err := n.BookingConfirmed(context.Background(), b); err != nil {
		t.Fatalf("BookingConfirmed failed: %v", err)
	}
	cancelledAt := fixed.Add(time.Hour)
	b.Status = bookings.StatusCancelled
	b.CancelledAt = &cancelledAt
	if err := n.BookingCancelled(context.Background(), b); err != nil {
		t.Fatalf("BookingCancelled failed: %v", err)
	}

	envs := pub.Envelopes()
	if len(envs) != 2 {
		t.Fatalf("expected two events, got %d", len(envs))
	}
	if envs[0].EventType != "scheduling.booking.confirmed.v1" || envs[1].EventType != "scheduling.booking.cancelled.v1" {
		t.Fatalf("unexpected event types: %s, %s", envs[0].EventType, envs[1].EventType)
	}
	if envs[0].Aggregate != "booking:APPT-1741168800000" || envs[0].CorrelationID != "QX7K2P" {
		t.Fatalf("unexpected envelope metadata: %#v", envs[0])
	}
	var cancelled events.BookingCancelledV1
	if err := json.Unmarshal(envs[1].Payload, &cancelled); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !cancelled.CancelledAt.Equal(cancelledAt) {
		t.Fatalf("expected cancellation time from booking, got %s", cancelled.CancelledAt)
	}
}

func TestBookingNotifier_JoinsErrors(t *testing.T) {
	mailErr := errors.New("mail down")
	pubErr := errors.New("queue down")
	n := NewBookingNotifier(failingSender{err: mailErr}, nil, WithPublisher(failingPublisher{err: pubErr}))

	err := n.BookingConfirmed(context.Background(), sampleBooking())
	if !errors.Is(err, mailErr) || !errors.Is(err, pubErr) {
		t.Fatalf("expected both failures, got %v", err)
	}
}

func TestBookingNotifier_WithLedger(t *testing.T) {
	sender := NewStubEmailSender(nil)
	svc := bookings.NewService(bookings.NewMemoryStore(), nil, bookings.WithNotifier(NewBookingNotifier(sender, nil)))

	b := sampleBooking()
	_, err := svc.Book(context.Background(), bookings.Request{
		DoctorID:        b.DoctorID,
		DoctorName:      b.DoctorName,
		AppointmentType: b.AppointmentType,
		Date:            b.Date,
		StartTime:       b.StartTime,
		Reason:          b.Reason,
		PatientName:     b.PatientName,
		PatientEmail:    b.PatientEmail,
		PatientPhone:    b.PatientPhone,
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if len(sender.Sent()) != 1 {
		t.Fatalf("expected confirmation email, got %d", len(sender.Sent()))
	}
}

func TestNewBookingNotifier_PanicsOnNilSender(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewBookingNotifier(nil, nil)
}
