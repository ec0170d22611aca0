package conversation

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/wolfman30/clinic-scheduling-agent/internal/availability"
	"github.com/wolfman30/clinic-scheduling-agent/internal/dates"
)

// AppointmentType is an entry of the bookable visit catalogue.
type AppointmentType struct {
	Key     string
	Name    string
	Minutes int
}

// DefaultAppointmentType is suggested during triage and chosen by a bare "yes".
const DefaultAppointmentType = "consultation"

var appointmentTypes = []AppointmentType{
	{Key: "consultation", Name: "General Consultation", Minutes: 30},
	{Key: "followup", Name: "Follow-up", Minutes: 15},
	{Key: "follow-up", Name: "Follow-up", Minutes: 15},
	{Key: "physical", Name: "Physical Exam", Minutes: 45},
	{Key: "specialist", Name: "Specialist Consultation", Minutes: 60},
}

// LookupAppointmentType returns the catalogue entry for key.
func LookupAppointmentType(key string) (AppointmentType, bool) {
	for _, t := range appointmentTypes {
		if t.Key == key {
			return t, true
		}
	}
	return AppointmentType{}, false
}

// typeMatchOrder lists the specific visit kinds before "consultation" so a menu pick such as
// "Specialist Consultation" is not read as a general consultation.
var typeMatchOrder = []struct {
	term string
	key  string
}{
	{"specialist", "specialist"},
	{"follow-up", "follow-up"},
	{"followup", "followup"},
	{"follow up", "followup"},
	{"physical", "physical"},
	{"consultation", "consultation"},
}

// parseAppointmentType lower-cases its input.
func parseAppointmentType(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, m := range typeMatchOrder {
		if strings.Contains(lower, m.term) {
			return m.key, true
		}
	}
	switch {
	case strings.Contains(lower, "consult"):
		return "consultation", true
	case strings.Contains(lower, "exam"), strings.Contains(lower, "checkup"), strings.Contains(lower, "check-up"):
		return "physical", true
	}
	return "", false
}

// words splits lower-cased text into letter/digit runs, keeping inner hyphens and apostrophes.
func words(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
}

// parseTimeOfDay maps a message onto morning, afternoon or evening. Period words win, then
// an explicit clock time; a bare "am" or "pm" counts only in a short reply so "I am free"
// is not read as morning.
func parseTimeOfDay(text string) (string, bool) {
	lower := strings.ToLower(text)
	tokens := words(strings.ReplaceAll(lower, ".", ""))
	for _, w := range tokens {
		switch w {
		case "morning":
			return "morning", true
		case "afternoon", "noon":
			return "afternoon", true
		case "evening", "night", "tonight":
			return "evening", true
		}
	}
	if clock, ok := mentionedClock(lower); ok {
		minutes, _ := dates.ParseClock(clock)
		switch {
		case minutes < 12*60:
			return "morning", true
		case minutes < 17*60:
			return "afternoon", true
		default:
			return "evening", true
		}
	}
	if len(tokens) <= 2 {
		for _, w := range tokens {
			switch w {
			case "am":
				return "morning", true
			case "pm":
				return "afternoon", true
			}
		}
	}
	return "", false
}

var ordinals = map[string]int{
	"first": 0, "1st": 0,
	"second": 1, "2nd": 1,
	"third": 2, "3rd": 2,
	"fourth": 3, "4th": 3,
	"fifth": 4, "5th": 4,
}

var singleDigit = regexp.MustCompile(`\b([1-9])\b`)

// ordinalIndex returns the first ordinal word in lower.
func ordinalIndex(lower string) (int, bool) {
	for _, w := range words(lower) {
		if idx, ok := ordinals[w]; ok {
			return idx, true
		}
	}
	return 0, false
}

func digitIndex(lower string) (int, bool) {
	m := singleDigit.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	return n - 1, true
}

// pickDoctor selects by ordinal, then list number, then full name, then surname.
func pickDoctor(text string, doctors []availability.DoctorSummary) (availability.DoctorSummary, bool) {
	lower := strings.ToLower(text)
	if idx, ok := ordinalIndex(lower); ok && idx < len(doctors) {
		return doctors[idx], true
	}
	if idx, ok := digitIndex(lower); ok && idx < len(doctors) {
		return doctors[idx], true
	}
	for _, d := range doctors {
		if strings.Contains(lower, strings.ToLower(d.Name)) {
			return d, true
		}
	}
	for _, d := range doctors {
		nameWords := words(strings.ToLower(d.Name))
		if len(nameWords) == 0 {
			continue
		}
		if surname := nameWords[len(nameWords)-1]; len(surname) > 2 && hasWord(lower, surname) {
			return d, true
		}
	}
	return availability.DoctorSummary{}, false
}

var clockExpr = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

// mentionedClock finds the first explicit time ("10:30", "2pm", "9:15 am") in lower.
// A bare number is not a time.
func mentionedClock(lower string) (string, bool) {
	for _, m := range clockExpr.FindAllStringSubmatch(strings.ReplaceAll(lower, ".", ""), -1) {
		if m[2] == "" && m[3] == "" {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		switch m[3] {
		case "pm":
			if hour != 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 || minute > 59 {
			continue
		}
		return dates.FormatClock(hour*60 + minute), true
	}
	return "", false
}

// pickSlot selects by keyword, then explicit time, then ordinal, then list number.
// An explicit time that is not offered selects nothing.
func pickSlot(text string, slots []availability.TimeSlot) (string, bool) {
	if len(slots) == 0 {
		return "", false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "earliest") || strings.Contains(lower, "first available") {
		return slots[0].StartTime, true
	}
	if strings.Contains(lower, "latest") || hasWord(lower, "last") {
		return slots[len(slots)-1].StartTime, true
	}
	if clock, ok := mentionedClock(lower); ok {
		for _, s := range slots {
			if s.StartTime == clock {
				return s.StartTime, true
			}
		}
		return "", false
	}
	if idx, ok := ordinalIndex(lower); ok && idx < len(slots) {
		return slots[idx].StartTime, true
	}
	if idx, ok := digitIndex(lower); ok && idx < len(slots) {
		return slots[idx].StartTime, true
	}
	return "", false
}

func isValidName(text string) bool {
	return len(strings.Fields(text)) >= 2
}

func isValidPhone(text string) bool {
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func isValidEmail(text string) bool {
	return emailPattern.MatchString(text)
}

var (
	bookingIDPattern = regexp.MustCompile(`APPT-\d+`)
	codePattern      = regexp.MustCompile(`\b[A-Z0-9]{6}\b`)
)

// parseConfirmationCode extracts "APPT-<digits>" or a six character code. Among six
// character tokens one containing a digit wins over plain words like "PLEASE".
func parseConfirmationCode(text string) (string, bool) {
	upper := strings.ToUpper(text)
	if m := bookingIDPattern.FindString(upper); m != "" {
		return m, true
	}
	candidates := codePattern.FindAllString(upper, -1)
	for _, c := range candidates {
		if strings.ContainsAny(c, "0123456789") {
			return c, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return "", false
}

// llmAction is the closed action shape the fallback model is asked to produce.
type llmAction struct {
	Action   string `json:"action"`
	Message  string `json:"message"`
	Question string `json:"question"`
}

// parseLLMAction decodes the first balanced JSON object in text.
func parseLLMAction(text string) (llmAction, bool) {
	obj, ok := firstJSONObject(text)
	if !ok {
		return llmAction{}, false
	}
	var action llmAction
	if err := json.Unmarshal([]byte(obj), &action); err != nil {
		return llmAction{}, false
	}
	return action, true
}

func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
