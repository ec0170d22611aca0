// Package directory holds the clinic's doctor reference data. Profiles are loaded once at
// startup and never mutated afterwards.
package directory

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/wolfman30/clinic-scheduling-agent/internal/dates"
)

// ErrDoctorNotFound is returned when a doctor id is not in the directory.
var ErrDoctorNotFound = errors.New("directory: doctor not found")

//go:embed doctors.json
var defaultDoctors []byte

// Hours is a working-hours interval in 24h "HH:MM".
type Hours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DoctorProfile describes one doctor's practice and weekly schedule.
type DoctorProfile struct {
	ID             int      `json:"doctor_id"`
	Name           string   `json:"name"`
	Specialization string   `json:"specialization"`
	WorkingDays    []string `json:"working_days"`
	WorkingHours   Hours    `json:"working_hours"`
	SlotMinutes    int      `json:"appointment_duration_minutes"`
}

// WorksOn reports whether the doctor works on the given English weekday name.
func (d DoctorProfile) WorksOn(weekday string) bool {
	for _, day := range d.WorkingDays {
		if strings.EqualFold(day, weekday) {
			return true
		}
	}
	return false
}

// Directory is an immutable, ordered set of doctor profiles.
type Directory struct {
	doctors []DoctorProfile
	byID    map[int]int
}

// New validates profiles and builds a Directory preserving their order.
func New(profiles []DoctorProfile) (*Directory, error) {
	d := &Directory{
		doctors: make([]DoctorProfile, 0, len(profiles)),
		byID:    make(map[int]int, len(profiles)),
	}
	for _, p := range profiles {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := d.byID[p.ID]; dup {
			return nil, fmt.Errorf("directory: duplicate doctor_id %d", p.ID)
		}
		p.WorkingDays = append([]string(nil), p.WorkingDays...)
		d.byID[p.ID] = len(d.doctors)
		d.doctors = append(d.doctors, p)
	}
	return d, nil
}

func validate(p DoctorProfile) error {
	if p.ID <= 0 {
		return fmt.Errorf("directory: doctor %q has invalid id %d", p.Name, p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("directory: doctor %d has no name", p.ID)
	}
	if p.SlotMinutes <= 0 {
		return fmt.Errorf("directory: doctor %d has non-positive slot duration", p.ID)
	}
	start, err := dates.ParseClock(p.WorkingHours.Start)
	if err != nil {
		return fmt.Errorf("directory: doctor %d: %w", p.ID, err)
	}
	end, err := dates.ParseClock(p.WorkingHours.End)
	if err != nil {
		return fmt.Errorf("directory: doctor %d: %w", p.ID, err)
	}
	if end <= start {
		return fmt.Errorf("directory: doctor %d working hours end before they start", p.ID)
	}
	return nil
}

// Load decodes a JSON array of profiles.
func Load(r io.Reader) (*Directory, error) {
	var profiles []DoctorProfile
	if err := json.NewDecoder(r).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("directory: decode profiles: %w", err)
	}
	return New(profiles)
}

// LoadFile reads profiles from path, or the embedded clinic roster when path is empty.
func LoadFile(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("directory: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded clinic roster.
func Default() (*Directory, error) {
	var profiles []DoctorProfile
	if err := json.Unmarshal(defaultDoctors, &profiles); err != nil {
		return nil, fmt.Errorf("directory: decode embedded profiles: %w", err)
	}
	return New(profiles)
}

// All returns the profiles in directory order.
func (d *Directory) All() []DoctorProfile {
	out := make([]DoctorProfile, len(d.doctors))
	copy(out, d.doctors)
	return out
}

// Get returns the profile with id.
func (d *Directory) Get(id int) (DoctorProfile, error) {
	idx, ok := d.byID[id]
	if !ok {
		return DoctorProfile{}, fmt.Errorf("%w: %d", ErrDoctorNotFound, id)
	}
	return d.doctors[idx], nil
}

// BySpecialization returns doctors practicing specialization, in directory order.
func (d *Directory) BySpecialization(specialization string) []DoctorProfile {
	var out []DoctorProfile
	for _, doc := range d.doctors {
		if doc.Specialization == specialization {
			out = append(out, doc)
		}
	}
	return out
}

// Specializations lists the distinct specializations, sorted.
func (d *Directory) Specializations() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, doc := range d.doctors {
		if _, ok := seen[doc.Specialization]; ok {
			continue
		}
		seen[doc.Specialization] = struct{}{}
		out = append(out, doc.Specialization)
	}
	sort.Strings(out)
	return out
}
