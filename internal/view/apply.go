package view

import (
	"slices"
	"strings"
	"time"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
)

// Row statuses.
const (
	StatusLive     = "live"
	StatusUpcoming = "upcoming"
)

// Row is one rendered table row.
type Row struct {
	catalog.ClassItem

	Status    string `json:"status,omitempty"`
	TimeRange string `json:"timeRange"`
	// Remaining is set on live rows, BeginsIn on upcoming rows.
	Remaining string `json:"remaining,omitempty"`
	BeginsIn  string `json:"beginsIn,omitempty"`
	// Progress is the elapsed fraction of a live lecture.
	Progress float64 `json:"progress,omitempty"`
}

// Page is the visible slice of a table.
type Page struct {
	Rows       []Row `json:"rows"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int   `json:"total"`
}

// Apply projects items through s at now. The upcoming window is
// schedule.DefaultUpcomingWindow.
func Apply(s State, items []catalog.ClassItem, now time.Time) Page {
	return ApplyWindow(s, items, schedule.DefaultUpcomingWindow, now)
}

// ApplyWindow is Apply with an explicit upcoming window.
func ApplyWindow(s State, items []catalog.ClassItem, window time.Duration, now time.Time) Page {
	var rows []Row
	switch s.Tab {
	case TabLive:
		for _, c := range catalog.Live(items, now) {
			rows = append(rows, Row{
				ClassItem: c.ClassItem,
				Status:    StatusLive,
				TimeRange: schedule.FormatRange(c.Time),
				Remaining: schedule.FormatMinutes(c.Remaining),
				Progress:  c.Progress(),
			})
		}
	case TabUpcoming:
		for _, c := range catalog.Upcoming(items, window, now) {
			rows = append(rows, Row{
				ClassItem: c.ClassItem,
				Status:    StatusUpcoming,
				TimeRange: schedule.FormatRange(c.Time),
				BeginsIn:  schedule.FormatMinutes(c.Until),
			})
		}
	case TabCatalog:
		for _, item := range catalog.Catalog(items) {
			rows = append(rows, Row{ClassItem: item, TimeRange: schedule.FormatRange(item.Time)})
		}
	default:
		return Page{}
	}

	rows = slices.DeleteFunc(rows, func(r Row) bool { return !s.Filters.Match(r.ClassItem) })
	if s.SortDesc {
		slices.Reverse(rows)
	}
	return paginate(rows, s.Page, s.PageSize)
}

func paginate(rows []Row, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(rows)
	pages := max(1, (total+size-1)/size)
	page = min(max(0, page), pages-1)

	start := page * size
	end := min(total, start+size)
	return Page{
		Rows:       rows[start:end],
		Page:       page,
		TotalPages: pages,
		Total:      total,
	}
}

// Match reports whether item passes every set filter.
func (f Filters) Match(item catalog.ClassItem) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := strings.ToLower(item.CourseCode + "\x00" + item.CourseName + "\x00" + item.Professor)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	if f.Building != "" && !strings.EqualFold(f.Building, item.Building) {
		return false
	}
	if f.Day != "" {
		day, ok := schedule.ParseWeekday(f.Day)
		if !ok || !slices.Contains(schedule.ParseDays(item.Days), day) {
			return false
		}
	}
	if f.TimeOfDay != "" {
		start, _ := schedule.SplitRange(item.Time)
		clock, err := schedule.ParseClock(start)
		if err != nil || !strings.EqualFold(schedule.TimeOfDay(clock), f.TimeOfDay) {
			return false
		}
	}
	return true
}

// Buildings returns the distinct buildings in items, sorted.
func Buildings(items []catalog.ClassItem) []string {
	var out []string
	for _, item := range items {
		if item.Building != "" {
			out = append(out, item.Building)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
