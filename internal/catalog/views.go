package catalog

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/fyrsmithlabs/sitin/internal/schedule"
)

// Classified is a lecture placed against a particular instant.
type Classified struct {
	ClassItem
	Start time.Time
	// End is zero when the end token does not parse.
	End time.Time
	// Remaining is whole minutes until End, for live lectures.
	Remaining int
	// Elapsed is whole minutes since Start, for live lectures.
	Elapsed int
	// Until is whole minutes until Start, for upcoming lectures.
	Until int
}

// Progress is the elapsed fraction of the lecture, 0 through 1.
func (c Classified) Progress() float64 {
	total := c.End.Sub(c.Start)
	if total <= 0 {
		return 0
	}
	return min(1, max(0, float64(c.Elapsed)*float64(time.Minute)/float64(total)))
}

func classify(item ClassItem, now time.Time) (Classified, bool) {
	startToken, endToken := schedule.SplitRange(item.Time)
	start, err := schedule.Instant(startToken, now)
	if err != nil {
		return Classified{}, false
	}
	c := Classified{ClassItem: item, Start: start}
	if end, err := schedule.Instant(endToken, now); err == nil {
		c.End = end
	}
	return c, true
}

// Live returns lectures in session at now, most time remaining first.
// Items whose time tokens do not parse are left out.
func Live(items []ClassItem, now time.Time) []Classified {
	var out []Classified
	for _, item := range items {
		startToken, endToken := schedule.SplitRange(item.Time)
		live, err := schedule.IsLive(startToken, endToken, item.Days, now)
		if err != nil || !live {
			continue
		}
		c, ok := classify(item, now)
		if !ok {
			continue
		}
		c.Remaining, _ = schedule.MinutesRemaining(endToken, now)
		c.Elapsed, _ = schedule.MinutesElapsed(startToken, now)
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b Classified) int {
		return cmp.Compare(b.Remaining, a.Remaining)
	})
	return out
}

// Upcoming returns lectures starting after now and within window, soonest
// first.
func Upcoming(items []ClassItem, window time.Duration, now time.Time) []Classified {
	var out []Classified
	for _, item := range items {
		startToken, _ := schedule.SplitRange(item.Time)
		upcoming, err := schedule.IsUpcoming(startToken, item.Days, window, now)
		if err != nil || !upcoming {
			continue
		}
		c, ok := classify(item, now)
		if !ok {
			continue
		}
		c.Until, _ = schedule.MinutesUntil(startToken, now)
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b Classified) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// Catalog returns every item ordered by course code, case-insensitively,
// then by start time. Items with unparseable times sort last within a code.
func Catalog(items []ClassItem) []ClassItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b ClassItem) int {
		if c := cmp.Compare(strings.ToUpper(a.CourseCode), strings.ToUpper(b.CourseCode)); c != 0 {
			return c
		}
		return cmp.Compare(startMinute(a), startMinute(b))
	})
	return out
}

func startMinute(item ClassItem) int {
	start, _ := schedule.SplitRange(item.Time)
	c, err := schedule.ParseClock(start)
	if err != nil {
		return 24 * 60
	}
	return int(c)
}

// Unclassifiable returns items whose start or end token does not parse.
func Unclassifiable(items []ClassItem) []ClassItem {
	var out []ClassItem
	for _, item := range items {
		start, end := schedule.SplitRange(item.Time)
		if _, err := schedule.ParseClock(start); err != nil {
			out = append(out, item)
			continue
		}
		if _, err := schedule.ParseClock(end); err != nil {
			out = append(out, item)
		}
	}
	return out
}
