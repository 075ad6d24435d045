package schedule

import (
	"strings"
	"time"
)

// dayTokens is ordered so two-letter tokens are tried before any single
// letter; "Th" is never read as a "T" followed by a stray "h".
var dayTokens = []struct {
	token string
	day   time.Weekday
}{
	{"Tu", time.Tuesday},
	{"Th", time.Thursday},
	{"Sa", time.Saturday},
	{"Su", time.Sunday},
	{"M", time.Monday},
	{"W", time.Wednesday},
	{"F", time.Friday},
}

// ParseDays tokenizes a compact weekday pattern ("MWF", "TuTh", "MTuWThF").
// Unknown characters are skipped.
func ParseDays(pattern string) []time.Weekday {
	var days []time.Weekday
	rest := strings.TrimSpace(pattern)
	for len(rest) > 0 {
		matched := false
		for _, dt := range dayTokens {
			if strings.HasPrefix(rest, dt.token) {
				days = append(days, dt.day)
				rest = rest[len(dt.token):]
				matched = true
				break
			}
		}
		if !matched {
			rest = rest[1:]
		}
	}
	return days
}

// MeetsOn reports whether pattern includes ref's Pacific weekday.
func MeetsOn(pattern string, ref time.Time) bool {
	today := ref.In(Pacific).Weekday()
	for _, d := range ParseDays(pattern) {
		if d == today {
			return true
		}
	}
	return false
}

// ParseWeekday reads a single day given as a pattern token ("M", "Tu",
// "th") or a full English name ("Monday").
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	for _, dt := range dayTokens {
		if strings.EqualFold(s, dt.token) || strings.EqualFold(s, dt.day.String()) {
			return dt.day, true
		}
	}
	return 0, false
}

// ExpandDays returns full weekday names: "TuTh" -> ["Tuesday", "Thursday"].
func ExpandDays(pattern string) []string {
	days := ParseDays(pattern)
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return names
}
