package conversation

import (
	"testing"

	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
)

func TestParseConfirmationCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"appt-1732829", "APPT-1732829", true},
		{"my booking is APPT-42 thanks", "APPT-42", true},
		{"abc123", "ABC123", true},
		{"please find QX7K2P", "QX7K2P", true},
		{"ABCDEF", "ABCDEF", true},
		{"no idea", "", false},
		{"1234567", "", false},
	}
	for _, tt := range tests {
		got, ok := parseConfirmationCode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseConfirmationCode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"morning please", "morning", true},
		{"Afternoon works", "afternoon", true},
		{"around noon", "afternoon", true},
		{"tonight", "evening", true},
		{"I am free at 3pm", "afternoon", true},
		{"10:30 a.m.", "morning", true},
		{"18:00", "evening", true},
		{"pm", "afternoon", true},
		{"I am flexible", "", false},
		{"whenever", "", false},
	}
	for _, tt := range tests {
		got, ok := parseTimeOfDay(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseTimeOfDay(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseAppointmentType(t *testing.T) {
	tests := map[string]string{
		"a follow-up visit":       "follow-up",
		"followup":                "followup",
		"just a follow up":        "followup",
		"annual physical":         "physical",
		"a checkup":               "physical",
		"I'd like to consult":     "consultation",
		"Specialist Consultation": "specialist",
		"General Consultation":    "consultation",
		"Physical Exam":           "physical",
		"Follow-up":               "follow-up",
		"follow up consultation":  "followup",
		"see a specialist":        "specialist",
	}
	for in, want := range tests {
		got, ok := parseAppointmentType(in)
		if !ok || got != want {
			t.Errorf("parseAppointmentType(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := parseAppointmentType("no idea"); ok {
		t.Errorf("expected no type for filler")
	}
}

func TestIsYes(t *testing.T) {
	for _, in := range []string{"yes", "y", "yes please", "yes, cancel it"} {
		if !isYes(in) {
			t.Errorf("expected %q to be a yes", in)
		}
	}
	for _, in := range []string{"no, i'm fine", "not sure", "ok no, keep it", "sure", "fine", "ok", "yes, keep it", "yesterday"} {
		if isYes(in) {
			t.Errorf("expected %q not to be a yes", in)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	for _, in := range []string{"yes", "y", "ok!", "sounds good", "yeah sure"} {
		if !isAffirmative(in) {
			t.Errorf("expected %q to be affirmative", in)
		}
	}
	for _, in := range []string{"physical", "no", "maybe later", "yesterday"} {
		if isAffirmative(in) {
			t.Errorf("expected %q not to be affirmative", in)
		}
	}
}

func TestPickDoctor(t *testing.T) {
	doctors := []availability.DoctorSummary{
		{DoctorID: 1, Name: "Dr. Sarah Johnson"},
		{DoctorID: 2, Name: "Dr. Michael Chen"},
	}
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"the first one", 1, true},
		{"2nd", 2, true},
		{"2", 2, true},
		{"dr. michael chen please", 2, true},
		{"Dr. Johnson", 1, true},
		{"chen", 2, true},
		{"third", 0, false},
		{"7", 0, false},
		{"anyone", 0, false},
	}
	for _, tt := range tests {
		got, ok := pickDoctor(tt.in, doctors)
		if ok != tt.ok || got.DoctorID != tt.want {
			t.Errorf("pickDoctor(%q) = %d, %v; want %d, %v", tt.in, got.DoctorID, ok, tt.want, tt.ok)
		}
	}
}

func TestPickSlot(t *testing.T) {
	slots := []availability.TimeSlot{
		{StartTime: "09:00"}, {StartTime: "09:30"}, {StartTime: "10:30"}, {StartTime: "14:00"},
	}
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"earliest", "09:00", true},
		{"first available please", "09:00", true},
		{"the latest", "14:00", true},
		{"last one", "14:00", true},
		{"10:30", "10:30", true},
		{"9:30 works", "09:30", true},
		{"2pm", "14:00", true},
		{"2 pm", "14:00", true},
		{"the second", "09:30", true},
		{"3", "10:30", true},
		{"11:00", "", false},
		{"8", "", false},
		{"none of these", "", false},
	}
	for _, tt := range tests {
		got, ok := pickSlot(tt.in, slots)
		if got != tt.want || ok != tt.ok {
			t.Errorf("pickSlot(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if _, ok := pickSlot("earliest", nil); ok {
		t.Errorf("expected no pick without slots")
	}
}

func TestContactValidation(t *testing.T) {
	if !isValidName("Jane Doe") || isValidName("Jane") {
		t.Errorf("name validation wrong")
	}
	if !isValidPhone("(555) 123-4567") || isValidPhone("555-1234") {
		t.Errorf("phone validation wrong")
	}
	if !isValidEmail("jane@example.com") || isValidEmail("jane@example") || isValidEmail("jane doe@example.com") {
		t.Errorf("email validation wrong")
	}
}

func TestParseLLMAction(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		action  string
		message string
		ok      bool
	}{
		{"bare object", `{"action":"reply","message":"hi"}`, "reply", "hi", true},
		{"prose around", "Here you go:\n```json\n{\"action\": \"reply\", \"message\": \"ok\"}\n```", "reply", "ok", true},
		{"braces in string", `{"action":"reply","message":"use {curly} \"quotes\""} trailing {`, "reply", `use {curly} "quotes"`, true},
		{"nested", `{"action":"book","payload":{"date":"2025-03-06"}}`, "book", "", true},
		{"unterminated", `{"action":"reply"`, "", "", false},
		{"no object", "nothing here", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseLLMAction(tt.text)
			if ok != tt.ok || got.Action != tt.action || got.Message != tt.message {
				t.Fatalf("parseLLMAction = %#v, %v", got, ok)
			}
		})
	}
}
