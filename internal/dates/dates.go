// Package dates resolves the date expressions patients type ("tomorrow", "next Monday",
// "March 5th", "2025-03-05") into calendar days in the clinic's location.
package dates

import (
	"strings"
	"time"
)

// Layout is the canonical ISO calendar-day format used across sessions, slots and bookings.
const Layout = "2006-01-02"

var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// absoluteLayouts are tried in order by Parse. Layouts without a year resolve to now's year.
var absoluteLayouts = []string{
	Layout,
	"01/02/2006",
	"02-01-2006",
	"January 2",
	"Jan 2",
}

// Parse resolves the narrow expression set accepted by availability queries:
// "today", "tomorrow", any weekday name, and the absoluteLayouts.
func Parse(expr string, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(expr)
	lower := strings.ToLower(raw)
	today := startOfDay(now)

	switch lower {
	case "":
		return time.Time{}, false
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	for _, wd := range weekdays {
		if strings.Contains(lower, wd.name) {
			return NextWeekday(today, wd.day), true
		}
	}

	for _, layout := range absoluteLayouts {
		parsed, err := time.ParseInLocation(layout, raw, now.Location())
		if err != nil {
			continue
		}
		if parsed.Year() == 0 {
			parsed = time.Date(today.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())
		}
		return parsed, true
	}
	return time.Time{}, false
}

// NextWeekday returns the next date falling on wd strictly after from's day.
// A weekday equal to today resolves to the same day next week.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	ahead := (int(wd) - int(from.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return startOfDay(from).AddDate(0, 0, ahead)
}

// Format renders t as an ISO calendar day.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Weekday returns the English weekday name ("Monday") of an ISO calendar day.
func Weekday(isoDate string, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(Layout, isoDate, loc)
	if err != nil {
		return "", false
	}
	return t.Weekday().String(), true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
