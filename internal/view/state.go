// Package view holds the lecture board's view state and the pure functions
// that update it and project the catalog through it.
package view

// Tab selects which table is shown.
type Tab string

// Tabs in display order.
const (
	TabLive     Tab = "live"
	TabUpcoming Tab = "upcoming"
	TabCatalog  Tab = "catalog"
	TabAbout    Tab = "about"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabLive, TabUpcoming, TabCatalog, TabAbout}

// Title is the tab heading.
func (t Tab) Title() string {
	switch t {
	case TabLive:
		return "Live Lectures"
	case TabUpcoming:
		return "Upcoming"
	case TabCatalog:
		return "Course Catalog"
	case TabAbout:
		return "About"
	}
	return string(t)
}

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 20

// Filters narrow the rows of any table. Empty fields match everything.
type Filters struct {
	Search    string
	Building  string
	Day       string
	TimeOfDay string
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool { return f == Filters{} }

// State is an immutable view state. Update it only through Reduce.
type State struct {
	Tab      Tab
	Filters  Filters
	SortDesc bool
	Page     int
	PageSize int
}

// NewState returns the initial state: the live tab, first page.
func NewState() State {
	return State{Tab: TabLive, PageSize: DefaultPageSize}
}
