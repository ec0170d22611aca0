package directory

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultRoster(t *testing.T) {
	dir, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	all := dir.All()
	if len(all) == 0 {
		t.Fatal("expected embedded doctors")
	}
	if all[0].ID != 1 || all[0].WorkingHours.Start != "09:00" || all[0].WorkingHours.End != "17:00" || all[0].SlotMinutes != 30 {
		t.Fatalf("unexpected first doctor: %+v", all[0])
	}
	want := []string{"Cardiologist", "Dentist", "Dermatologist", "General Physician", "Orthopedic Surgeon", "Pediatrician"}
	got := dir.Specializations()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("specializations = %v, want %v", got, want)
	}
}

func TestGet(t *testing.T) {
	dir, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	doc, err := dir.Get(4)
	if err != nil {
		t.Fatalf("Get(4): %v", err)
	}
	if doc.Specialization != "Cardiologist" {
		t.Fatalf("doctor 4 specialization = %q", doc.Specialization)
	}
	if _, err := dir.Get(999); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	dir, _ := Default()
	all := dir.All()
	all[0].Name = "mutated"
	if doc, _ := dir.Get(all[0].ID); doc.Name == "mutated" {
		t.Fatal("All must not expose internal storage")
	}
}

func TestWorksOn(t *testing.T) {
	doc := DoctorProfile{WorkingDays: []string{"Monday", "Friday"}}
	if !doc.WorksOn("monday") || !doc.WorksOn("Friday") {
		t.Fatal("expected Monday and Friday")
	}
	if doc.WorksOn("Sunday") {
		t.Fatal("did not expect Sunday")
	}
}

func TestNewValidation(t *testing.T) {
	valid := DoctorProfile{ID: 1, Name: "Dr. A", Specialization: "Dentist", WorkingDays: []string{"Monday"}, WorkingHours: Hours{Start: "09:00", End: "12:00"}, SlotMinutes: 30}

	cases := map[string]func(p *DoctorProfile){
		"zero id":     func(p *DoctorProfile) { p.ID = 0 },
		"blank name":  func(p *DoctorProfile) { p.Name = " " },
		"no duration": func(p *DoctorProfile) { p.SlotMinutes = 0 },
		"bad start":   func(p *DoctorProfile) { p.WorkingHours.Start = "nine" },
		"end before":  func(p *DoctorProfile) { p.WorkingHours.End = "08:00" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := valid
			mutate(&p)
			if _, err := New([]DoctorProfile{p}); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if _, err := New([]DoctorProfile{valid, valid}); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doctors.json")
	body := `[{"doctor_id":7,"name":"Dr. Q","specialization":"Dentist","working_days":["Tuesday"],"working_hours":{"start":"10:00","end":"11:00"},"appointment_duration_minutes":15}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	dir, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := dir.BySpecialization("Dentist"); len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("unexpected dentists: %+v", got)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if dir, err := LoadFile(""); err != nil || len(dir.All()) == 0 {
		t.Fatalf("empty path should load embedded roster: %v", err)
	}
}
