package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// JSONStore keeps the ledger as a JSON array, mirrored to a Blob after every mutation.
// The full collection is held in memory behind a mutex so check-and-append never races.
type JSONStore struct {
	mu     sync.Mutex
	blob   Blob
	loaded bool

	bookings []Booking
	bySlot   map[slotKey]int
	byID     map[string]int
	byCode   map[string]int
}

// NewJSONStore returns a store persisted to blob. A nil blob keeps the ledger in memory only.
func NewJSONStore(blob Blob) *JSONStore {
	return &JSONStore{blob: blob}
}

// NewMemoryStore returns a process-local ledger.
func NewMemoryStore() *JSONStore {
	return NewJSONStore(nil)
}

func (s *JSONStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	var records []Booking
	if s.blob != nil {
		data, err := s.blob.Read(ctx)
		if err != nil {
			return fmt.Errorf("bookings: read ledger: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("bookings: decode ledger: %w", err)
			}
		}
	}
	s.reindex(records)
	s.loaded = true
	return nil
}

func (s *JSONStore) reindex(records []Booking) {
	s.bookings = records
	s.bySlot = make(map[slotKey]int, len(records))
	s.byID = make(map[string]int, len(records))
	s.byCode = make(map[string]int, len(records))
	for i, b := range records {
		if _, ok := s.bySlot[b.slot()]; !ok {
			s.bySlot[b.slot()] = i
		}
		s.byID[b.BookingID] = i
		s.byCode[b.ConfirmationCode] = i
	}
}

func (s *JSONStore) persist(ctx context.Context) error {
	if s.blob == nil {
		return nil
	}
	data, err := json.MarshalIndent(s.bookings, "", "  ")
	if err != nil {
		return fmt.Errorf("bookings: encode ledger: %w", err)
	}
	if err := s.blob.Write(ctx, data); err != nil {
		return fmt.Errorf("bookings: write ledger: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *JSONStore) Append(ctx context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if _, taken := s.bySlot[b.slot()]; taken {
		return ErrSlotTaken
	}
	if _, dup := s.byID[b.BookingID]; dup {
		return ErrDuplicateID
	}
	if _, dup := s.byCode[b.ConfirmationCode]; dup {
		return ErrDuplicateID
	}

	idx := len(s.bookings)
	s.bookings = append(s.bookings, b)
	if err := s.persist(ctx); err != nil {
		s.bookings = s.bookings[:idx]
		return err
	}
	s.bySlot[b.slot()] = idx
	s.byID[b.BookingID] = idx
	s.byCode[b.ConfirmationCode] = idx
	return nil
}

// Get implements Store.
func (s *JSONStore) Get(ctx context.Context, ref string) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Booking{}, err
	}
	if idx, ok := s.byCode[ref]; ok {
		return s.bookings[idx], nil
	}
	if idx, ok := s.byID[ref]; ok {
		return s.bookings[idx], nil
	}
	return Booking{}, ErrBookingNotFound
}

// SetStatus implements Store.
func (s *JSONStore) SetStatus(ctx context.Context, bookingID string, status Status, at time.Time) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Booking{}, err
	}
	idx, ok := s.byID[bookingID]
	if !ok {
		return Booking{}, ErrBookingNotFound
	}
	prev := s.bookings[idx]
	updated := prev
	updated.Status = status
	if status == StatusCancelled {
		ts := at
		updated.CancelledAt = &ts
	}
	s.bookings[idx] = updated
	if err := s.persist(ctx); err != nil {
		s.bookings[idx] = prev
		return Booking{}, err
	}
	return updated, nil
}

// ListForDoctorDate implements Store.
func (s *JSONStore) ListForDoctorDate(ctx context.Context, doctorID int, date string) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	var out []Booking
	for _, b := range s.bookings {
		if b.DoctorID == doctorID && b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}
