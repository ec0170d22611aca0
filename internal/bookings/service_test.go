package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		DoctorID:        1,
		DoctorName:      "Dr. Sarah Johnson",
		AppointmentType: "consultation",
		Date:            "2025-03-06",
		StartTime:       "09:00",
		Reason:          "sore throat",
		PatientName:     "Jane Doe",
		PatientEmail:    "jane@example.com",
		PatientPhone:    "5551234567",
	}
}

func fixedClock() func() time.Time {
	ts := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []Booking
	cancelled []Booking
	err       error
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b)
	return n.err
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b)
	return n.err
}

type countingRecorder struct {
	mu    sync.Mutex
	books map[string]int
	cancs map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{books: map[string]int{}, cancs: map[string]int{}}
}

func (r *countingRecorder) ObserveBooking(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[result]++
}

func (r *countingRecorder) ObserveCancellation(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancs[result]++
}

func TestBookCreatesConfirmedBooking(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(NewMemoryStore(), nil, WithClock(fixedClock()), WithNotifier(notifier))

	b, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, fmt.Sprintf("APPT-%d", fixedClock()().UnixMilli()), b.BookingID)
	assert.Len(t, b.ConfirmationCode, 6)
	assert.Equal(t, strings.ToUpper(b.ConfirmationCode), b.ConfirmationCode)
	assert.Equal(t, "Dr. Sarah Johnson", b.DoctorName)
	assert.False(t, b.CreatedAt.IsZero())
	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, b.BookingID, notifier.confirmed[0].BookingID)
}

func TestBookRejectsInvalidRequest(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	req := validRequest()
	req.PatientEmail = "not-an-email"

	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookingIDsAreUniqueWithinSameMillisecond(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, WithClock(fixedClock()))
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		req := validRequest()
		req.StartTime = fmt.Sprintf("%02d:00", 9+i)
		b, err := svc.Book(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, seen[b.BookingID], "duplicate id %s", b.BookingID)
		seen[b.BookingID] = true
	}
}

func TestBookSameSlotTwiceReturnsSlotTaken(t *testing.T) {
	rec := newCountingRecorder()
	svc := NewService(NewMemoryStore(), nil, WithRecorder(rec))

	_, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 1, rec.books["confirmed"])
	assert.Equal(t, 1, rec.books["slot_taken"])
}

func TestCancelledSlotStaysTaken(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	b, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), b.BookingID)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestConfirmationCodeCollisionIsRedrawn(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	var i int
	gen := func() string {
		c := codes[i]
		i++
		return c
	}
	svc := NewService(NewMemoryStore(), nil, WithCodeGenerator(gen))

	first, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	req := validRequest()
	req.StartTime = "09:30"
	second, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.ConfirmationCode)
	assert.Equal(t, "BBBBBB", second.ConfirmationCode)
}

func TestCancelIsIdempotent(t *testing.T) {
	notifier := &recordingNotifier{}
	rec := newCountingRecorder()
	svc := NewService(NewMemoryStore(), nil, WithNotifier(notifier), WithRecorder(rec))
	b, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	first, err := svc.Cancel(context.Background(), b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, first.Status)
	assert.Equal(t, "Appointment cancelled successfully.", first.Message)
	assert.False(t, first.AlreadyCancelled())

	second, err := svc.Cancel(context.Background(), b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)
	assert.Equal(t, "Already cancelled", second.Message)
	assert.True(t, second.AlreadyCancelled())

	stored, err := svc.GetByConfirmation(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	require.NotNil(t, stored.CancelledAt)

	assert.Len(t, notifier.cancelled, 1)
	assert.Equal(t, 1, rec.cancs["cancelled"])
	assert.Equal(t, 1, rec.cancs["already_cancelled"])
}

func TestCancelUnknownBooking(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	_, err := svc.Cancel(context.Background(), "APPT-0")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetByConfirmationAcceptsIDOrCode(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	b, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	byCode, err := svc.GetByConfirmation(context.Background(), b.ConfirmationCode)
	require.NoError(t, err)
	byID, err := svc.GetByConfirmation(context.Background(), b.BookingID)
	require.NoError(t, err)
	assert.Equal(t, byCode.BookingID, byID.BookingID)

	_, err = svc.GetByConfirmation(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	_, err = svc.GetByConfirmation(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := NewService(NewMemoryStore(), nil, WithNotifier(notifier))

	b, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), b.BookingID)
	require.NoError(t, err)
}

func TestConcurrentBookingsOfOneSlotYieldOneWinner(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		lost int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.PatientName = fmt.Sprintf("Patient %d", i)
			_, err := svc.Book(context.Background(), req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotTaken):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, lost)

	list, err := svc.ListForDoctorDate(context.Background(), 1, "2025-03-06")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListForDoctorDateFilters(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)
	for _, mutate := range []func(r *Request){
		func(r *Request) {},
		func(r *Request) { r.StartTime = "10:00" },
		func(r *Request) { r.DoctorID = 2 },
		func(r *Request) { r.Date = "2025-03-07" },
	} {
		req := validRequest()
		mutate(&req)
		_, err := svc.Book(context.Background(), req)
		require.NoError(t, err)
	}

	list, err := svc.ListForDoctorDate(context.Background(), 1, "2025-03-06")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRequestValidate(t *testing.T) {
	cases := map[string]func(r *Request){
		"missing doctor": func(r *Request) { r.DoctorID = 0 },
		"missing type":   func(r *Request) { r.AppointmentType = "" },
		"missing name":   func(r *Request) { r.PatientName = "" },
		"missing phone":  func(r *Request) { r.PatientPhone = "" },
		"bad email":      func(r *Request) { r.PatientEmail = "jane@" },
		"bad date":       func(r *Request) { r.Date = "tomorrow" },
		"bad time":       func(r *Request) { r.StartTime = "9am" },
		"short time":     func(r *Request) { r.StartTime = "9:00" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
		})
	}
	assert.NoError(t, validRequest().Validate())
}
