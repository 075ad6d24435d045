package schedule

import (
	"fmt"
	"time"
)

// DefaultUpcomingWindow is how far ahead a lecture counts as upcoming.
const DefaultUpcomingWindow = 2 * time.Hour

// IsLive reports whether a lecture meeting on days is in session at now,
// with both ends of [start, end] inclusive.
func IsLive(start, end, days string, now time.Time) (bool, error) {
	s, err := Instant(start, now)
	if err != nil {
		return false, err
	}
	e, err := Instant(end, now)
	if err != nil {
		return false, err
	}
	if !MeetsOn(days, now) {
		return false, nil
	}
	return !now.Before(s) && !now.After(e), nil
}

// IsUpcoming reports whether a lecture meeting on days starts strictly
// after now and no later than now+window.
func IsUpcoming(start, days string, window time.Duration, now time.Time) (bool, error) {
	s, err := Instant(start, now)
	if err != nil {
		return false, err
	}
	if !MeetsOn(days, now) {
		return false, nil
	}
	return s.After(now) && !s.After(now.Add(window)), nil
}

// MinutesRemaining returns whole minutes until end, never negative.
func MinutesRemaining(end string, now time.Time) (int, error) {
	e, err := Instant(end, now)
	if err != nil {
		return 0, err
	}
	return clampMinutes(e.Sub(now)), nil
}

// MinutesElapsed returns whole minutes since start, never negative.
func MinutesElapsed(start string, now time.Time) (int, error) {
	s, err := Instant(start, now)
	if err != nil {
		return 0, err
	}
	return clampMinutes(now.Sub(s)), nil
}

// MinutesUntil returns whole minutes until start, never negative.
func MinutesUntil(start string, now time.Time) (int, error) {
	return MinutesRemaining(start, now)
}

func clampMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// FormatMinutes renders a minute count as "0m", "45m" or "1h 5m".
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
