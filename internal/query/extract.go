// Package query pulls scheduling constraints out of free-text course
// questions and turns them into an enriched search text and a metadata
// filter.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

const timeToken = `(\d+(?::\d+)?\s*[ap]m?)`

var (
	beforePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)before\s+` + timeToken),
		regexp.MustCompile(`(?i)ends?\s+before\s+` + timeToken),
		regexp.MustCompile(`(?i)earlier\s+than\s+` + timeToken),
	}
	afterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)after\s+` + timeToken),
		regexp.MustCompile(`(?i)starts?\s+after\s+` + timeToken),
		regexp.MustCompile(`(?i)later\s+than\s+` + timeToken),
	}
	minutesPattern = regexp.MustCompile(`(?i)(\d+)(?::(\d+))?\s*([ap]m?)`)
)

// Size thresholds applied for "small" and "large" wording.
const (
	SmallClassMax = 30
	LargeClassMin = 100
)

// TimeConstraint bounds lecture times as minutes past midnight. Nil means
// unset; zero is midnight.
type TimeConstraint struct {
	Before *int
	After  *int
}

// SizePreference bounds the seat limit. Nil means unset.
type SizePreference struct {
	Min *int
	Max *int
}

// ExtractTimeConstraints finds "before X" and "after X" style bounds. The
// first matching pattern per direction wins; the two bounds are not checked
// against each other.
func ExtractTimeConstraints(q string) TimeConstraint {
	var tc TimeConstraint
	tc.Before = firstMinutes(beforePatterns, q)
	tc.After = firstMinutes(afterPatterns, q)
	return tc
}

func firstMinutes(patterns []*regexp.Regexp, q string) *int {
	for _, re := range patterns {
		m := re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		if minutes, ok := ToMinutes(m[1]); ok {
			return &minutes
		}
	}
	return nil
}

// ToMinutes converts "2pm", "2:30 pm" or "10a" to minutes past midnight.
// 12am is 0 and 12pm is 720.
func ToMinutes(token string) (int, bool) {
	m := minutesPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	pm := strings.HasPrefix(strings.ToLower(m[3]), "p")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return hour*60 + minute, true
}

// ExtractSizePreference maps "small"/"tiny" to a seat cap and "large"/"big"
// to a seat floor. Small wording is checked first.
func ExtractSizePreference(q string) SizePreference {
	lower := strings.ToLower(q)
	switch {
	case strings.Contains(lower, "small") || strings.Contains(lower, "tiny"):
		return SizePreference{Max: intPtr(SmallClassMax)}
	case strings.Contains(lower, "large") || strings.Contains(lower, "big"):
		return SizePreference{Min: intPtr(LargeClassMin)}
	default:
		return SizePreference{}
	}
}

var timesOfDay = []string{"morning", "afternoon", "evening"}

// ExtractTimeOfDay returns the first of morning, afternoon or evening
// mentioned, or "".
func ExtractTimeOfDay(q string) string {
	lower := strings.ToLower(q)
	for _, tod := range timesOfDay {
		if strings.Contains(lower, tod) {
			return tod
		}
	}
	return ""
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// ExtractDayOfWeek returns the first weekday mentioned, capitalized
// ("Monday"), or "".
func ExtractDayOfWeek(q string) string {
	lower := strings.ToLower(q)
	for _, day := range weekdays {
		if strings.Contains(lower, day) {
			return strings.ToUpper(day[:1]) + day[1:]
		}
	}
	return ""
}

func intPtr(v int) *int { return &v }
