package availability

import "strings"

const defaultSpecialization = "General Physician"

var specializationByType = map[string]string{
	"consultation": "General Physician",
	"followup":     "General Physician",
	"follow-up":    "General Physician",
	"physical":     "General Physician",
	"dental":       "Dentist",
	"pediatric":    "Pediatrician",
	"cardio":       "Cardiologist",
	"derma":        "Dermatologist",
	"ortho":        "Orthopedic Surgeon",
}

// SpecializationFor maps an appointment type onto the specialization that serves it.
// "specialist" matches every specialization and reports matchAll. Unknown types fall back
// to General Physician.
func SpecializationFor(appointmentType string) (specialization string, matchAll bool) {
	key := strings.ToLower(strings.TrimSpace(appointmentType))
	if key == "specialist" {
		return "", true
	}
	if s, ok := specializationByType[key]; ok {
		return s, false
	}
	return defaultSpecialization, false
}
