package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"
)

// naturalParser holds the date-bearing English rules plus clinic formats.
// Clock-only rules are left out so "morning" or "5pm" never read as a day.
var naturalParser = newNaturalParser()

func newNaturalParser() *when.Parser {
	w := when.New(nil)
	w.Add(
		en.CasualDate(rules.Override),
		en.Deadline(rules.Override),
		en.ExactMonthDate(rules.Override),
		isoDateRule(),
		slashDateRule(),
		slashDateYearRule(),
	)
	return w
}

// phrasing the English rules do not cover, rewritten before matching.
var naturalRewrites = strings.NewReplacer(
	"day after tomorrow", "in 2 days",
	"tmrw", "tomorrow",
	"next week", "in 7 days",
)

// ParseNatural extracts the first date mentioned in free conversational text. It accepts
// everything Parse does plus relative offsets ("in 3 days", "day after tomorrow"),
// ordinals ("March 20th", "20th of march") and dates embedded in a sentence.
// Weekday names follow NextWeekday, so the current weekday means next week.
func ParseNatural(text string, now time.Time) (time.Time, bool) {
	lower := strings.Trim(strings.ToLower(strings.TrimSpace(text)), "?!. ")
	if lower == "" {
		return time.Time{}, false
	}
	if t, ok := Parse(lower, now); ok {
		return t, true
	}
	today := startOfDay(now)
	if wd, ok := mentionedWeekday(lower); ok {
		return NextWeekday(today, wd), true
	}

	res, err := naturalParser.Parse(naturalRewrites.Replace(lower), now)
	if err != nil || res == nil {
		return time.Time{}, false
	}
	return startOfDay(res.Time.In(now.Location())), true
}

// mentionedWeekday matches full weekday names or their three-letter forms as whole words.
func mentionedWeekday(lower string) (time.Weekday, bool) {
	for _, field := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		for _, wd := range weekdays {
			if field == wd.name || field == wd.name[:3] {
				return wd.day, true
			}
		}
	}
	return 0, false
}

func isoDateRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?:^|\s)(\d{4})-(\d{1,2})-(\d{1,2})(?:$|\s)`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			return setDate(c, atoi(m.Captures[0]), atoi(m.Captures[1]), atoi(m.Captures[2])), nil
		},
	}
}

// slashDateRule reads US month/day order and assumes the reference year.
func slashDateRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?:^|[^\d/])(\d{1,2})/(\d{1,2})(?:$|[^\d/])`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, ref time.Time) (bool, error) {
			return setDate(c, ref.Year(), atoi(m.Captures[0]), atoi(m.Captures[1])), nil
		},
	}
}

func slashDateYearRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?:^|[^\d/])(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})(?:$|[^\d/])`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			year := atoi(m.Captures[2])
			if year < 100 {
				year += 2000
			}
			return setDate(c, year, atoi(m.Captures[0]), atoi(m.Captures[1])), nil
		},
	}
}

// setDate rejects overflowing days (Feb 30) instead of letting time.Date normalize them.
func setDate(c *rules.Context, year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return false
	}
	c.Year, c.Month, c.Day = &year, &month, &day
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
