// Package availability turns doctor schedules and the booking ledger into bookable time slots.
package availability

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/internal/dates"
	"github.com/wolfman30/clinic-scheduling-agent/internal/directory"
	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// defaultRating is shown for every doctor until real ratings exist.
const defaultRating = 4.7

// TimeSlot is one fixed-width interval in a doctor's working day. Slots are computed per query.
type TimeSlot struct {
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Available      bool   `json:"available"`
	Duration       int    `json:"duration"`
	DoctorID       int    `json:"doctor_id"`
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization"`
}

// DoctorSummary is the card shown when a patient picks a doctor.
type DoctorSummary struct {
	DoctorID       int     `json:"doctor_id"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	Rating         float64 `json:"rating"`
	Image          string  `json:"image"`
}

// BookingReader exposes the ledger rows needed to mark slots taken.
type BookingReader interface {
	ListForDoctorDate(ctx context.Context, doctorID int, date string) ([]bookings.Booking, error)
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used to resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the clinic time zone.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver answers availability queries against live ledger state.
type Resolver struct {
	dir    *directory.Directory
	ledger BookingReader
	now    func() time.Time
	loc    *time.Location
	logger *logging.Logger
}

// NewResolver builds a resolver over the doctor directory and booking ledger.
func NewResolver(dir *directory.Directory, ledger BookingReader, opts ...Option) *Resolver {
	if dir == nil {
		panic("availability: directory cannot be nil")
	}
	if ledger == nil {
		panic("availability: booking reader cannot be nil")
	}
	r := &Resolver{
		dir:    dir,
		ledger: ledger,
		now:    time.Now,
		loc:    time.UTC,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveDate converts a date expression into an ISO calendar day in the clinic's zone.
func (r *Resolver) ResolveDate(expr string) (string, bool) {
	t, ok := dates.Parse(expr, r.now().In(r.loc))
	if !ok {
		return "", false
	}
	return dates.Format(t), true
}

// Check lists every slot, booked or not, for the date and appointment type, sorted by start time.
// When doctorID is non-zero only that doctor is considered. An unparseable date or no matching
// doctor yields an empty list; an error is returned only when the ledger cannot be read.
func (r *Resolver) Check(ctx context.Context, date, appointmentType string, doctorID int) ([]TimeSlot, error) {
	t, ok := dates.Parse(date, r.now().In(r.loc))
	if !ok {
		r.logger.Debug("availability: unparseable date", "date", date)
		return []TimeSlot{}, nil
	}
	isoDate := dates.Format(t)
	weekday := t.Weekday().String()

	slots := []TimeSlot{}
	for _, doc := range r.candidates(appointmentType, doctorID, weekday) {
		taken, err := r.takenStarts(ctx, doc.ID, isoDate)
		if err != nil {
			return nil, err
		}
		slots = append(slots, enumerate(doc, taken)...)
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

// Doctors lists the distinct doctors appearing in Check's result, in first-slot order.
func (r *Resolver) Doctors(ctx context.Context, date, appointmentType string) ([]DoctorSummary, error) {
	slots, err := r.Check(ctx, date, appointmentType, 0)
	if err != nil {
		return nil, err
	}
	return Summaries(slots), nil
}

// Summaries collapses slots into one DoctorSummary per doctor, preserving first appearance.
func Summaries(slots []TimeSlot) []DoctorSummary {
	seen := make(map[int]struct{})
	out := []DoctorSummary{}
	for _, s := range slots {
		if _, ok := seen[s.DoctorID]; ok {
			continue
		}
		seen[s.DoctorID] = struct{}{}
		out = append(out, DoctorSummary{
			DoctorID:       s.DoctorID,
			Name:           s.DoctorName,
			Specialization: s.Specialization,
			Rating:         defaultRating,
			Image:          AvatarURL(s.DoctorName),
		})
	}
	return out
}

// Open filters slots down to those still bookable.
func Open(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// AvatarURL returns a generated initials avatar for name.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(strings.TrimSpace(name))
}

func (r *Resolver) candidates(appointmentType string, doctorID int, weekday string) []directory.DoctorProfile {
	if doctorID != 0 {
		doc, err := r.dir.Get(doctorID)
		if err != nil || !doc.WorksOn(weekday) {
			return nil
		}
		return []directory.DoctorProfile{doc}
	}

	specialization, anySpecialization := SpecializationFor(appointmentType)
	var out []directory.DoctorProfile
	for _, doc := range r.dir.All() {
		if !doc.WorksOn(weekday) {
			continue
		}
		if !anySpecialization && doc.Specialization != specialization {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func (r *Resolver) takenStarts(ctx context.Context, doctorID int, isoDate string) (map[string]struct{}, error) {
	existing, err := r.ledger.ListForDoctorDate(ctx, doctorID, isoDate)
	if err != nil {
		return nil, fmt.Errorf("availability: read ledger: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		taken[b.StartTime] = struct{}{}
	}
	return taken, nil
}

// enumerate emits start+k*duration slots while the slot still ends within working hours.
func enumerate(doc directory.DoctorProfile, taken map[string]struct{}) []TimeSlot {
	start, err := dates.ParseClock(doc.WorkingHours.Start)
	if err != nil {
		return nil
	}
	end, err := dates.ParseClock(doc.WorkingHours.End)
	if err != nil {
		return nil
	}
	var out []TimeSlot
	for cur := start; cur+doc.SlotMinutes <= end; cur += doc.SlotMinutes {
		startTime := dates.FormatClock(cur)
		_, booked := taken[startTime]
		out = append(out, TimeSlot{
			StartTime:      startTime,
			EndTime:        dates.FormatClock(cur + doc.SlotMinutes),
			Available:      !booked,
			Duration:       doc.SlotMinutes,
			DoctorID:       doc.ID,
			DoctorName:     doc.Name,
			Specialization: doc.Specialization,
		})
	}
	return out
}
