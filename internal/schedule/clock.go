// Package schedule classifies recurring lecture times against the wall clock.
//
// Section rows carry times as compact 12-hour tokens ("6:00p") and weekday
// patterns as concatenated abbreviations ("MWF", "TuTh"). All comparisons are
// same-day, in Pacific time.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // containers often lack zoneinfo
)

// ErrInvalidClock is returned for time tokens that do not match h:mm[a|p].
var ErrInvalidClock = errors.New("invalid time token")

// Pacific is the campus timezone.
var Pacific = mustLoad("America/Los_Angeles")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("schedule: load %s: %v", name, err))
	}
	return loc
}

var clockPattern = regexp.MustCompile(`(?i)^(\d+):(\d+)(a|p)$`)

// Clock is a minute of the day, 0 through 1439.
type Clock int

// Hour returns the 24-hour hour.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute within the hour.
func (c Clock) Minute() int { return int(c) % 60 }

// String renders the clock as H:MM on a 24-hour dial.
func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", c.Hour(), c.Minute())
}

// ParseClock converts a token like "6:00p" to minutes past midnight.
// 12p stays hour 12 and 12a becomes hour 0.
func ParseClock(token string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, token)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidClock, token)
	}

	pm := strings.EqualFold(m[3], "p")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}
	return Clock(hour*60 + minute), nil
}

// On returns the instant at this clock on ref's Pacific calendar date.
func (c Clock) On(ref time.Time) time.Time {
	local := ref.In(Pacific)
	return time.Date(local.Year(), local.Month(), local.Day(), c.Hour(), c.Minute(), 0, 0, Pacific)
}

// Instant parses token and places it on the reference date in Pacific time.
func Instant(token string, ref time.Time) (time.Time, error) {
	c, err := ParseClock(token)
	if err != nil {
		return ref, err
	}
	return c.On(ref), nil
}

// InstantOrRef is Instant for display code that tolerates bad tokens; it
// returns ref unchanged when the token does not parse.
func InstantOrRef(token string, ref time.Time) time.Time {
	t, err := Instant(token, ref)
	if err != nil {
		return ref
	}
	return t
}

// SplitRange splits "6:00p-7:20p" into its start and end tokens.
func SplitRange(timeRange string) (start, end string) {
	start, end, _ = strings.Cut(timeRange, "-")
	return strings.TrimSpace(start), strings.TrimSpace(end)
}

// FormatClock renders "6:00p" as "6:00 PM". Tokens that do not parse are
// returned unchanged.
func FormatClock(token string) string {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return token
	}
	period := "AM"
	if strings.EqualFold(m[3], "p") {
		period = "PM"
	}
	return m[1] + ":" + m[2] + " " + period
}

// FormatRange renders "6:00p-7:20p" as "6:00 PM - 7:20 PM".
func FormatRange(timeRange string) string {
	start, end := SplitRange(timeRange)
	if end == "" {
		return FormatClock(start)
	}
	return FormatClock(start) + " - " + FormatClock(end)
}

// Time of day buckets used by the vector index metadata and query filters.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

// TimeOfDay buckets a clock: before noon is morning, before 5pm afternoon,
// otherwise evening.
func TimeOfDay(c Clock) string {
	switch {
	case c < 12*60:
		return Morning
	case c < 17*60:
		return Afternoon
	default:
		return Evening
	}
}

// FormatNow renders the current Pacific time as "3:04 PM".
func FormatNow(now time.Time) string {
	return now.In(Pacific).Format("3:04 PM")
}
