package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
)

// Wednesday 2025-01-08, 6:30 PM Pacific.
var wednesdayEvening = time.Date(2025, time.January, 8, 18, 30, 0, 0, schedule.Pacific)

func item(code, name, building, tm, days string) catalog.ClassItem {
	return catalog.ClassItem{
		ID:          code,
		CourseCode:  code,
		CourseName:  name,
		Professor:   "Staff",
		Building:    building,
		Room:        "101",
		Capacity:    100,
		Time:        tm,
		Days:        days,
		MeetingType: catalog.MeetingLecture,
	}
}

func fixture() []catalog.ClassItem {
	return []catalog.ClassItem{
		item("CSE 110", "Software Engineering", "CENTR", "6:00p-7:20p", "MWF"),
		item("MATH 20C", "Calculus III", "PCYNH", "6:20p-7:40p", "MW"),
		item("COGS 1", "Intro to Cognitive Science", "CENTR", "7:00p-8:20p", "MWF"),
		item("BILD 1", "The Cell", "YORK", "8:00p-9:20p", "W"),
		item("HIST 10", "Ancient History", "CENTR", "9:00a-9:50a", "TuTh"),
		item("ECON 1", "Principles", "YORK", "bad-time", "MWF"),
	}
}

func TestReduce(t *testing.T) {
	s := NewState()
	assert.Equal(t, TabLive, s.Tab)

	s = Reduce(s, NextPage{})
	s = Reduce(s, NextPage{})
	assert.Equal(t, 2, s.Page)

	s = Reduce(s, SetSearch{Text: "cse"})
	assert.Equal(t, 0, s.Page, "filters reset paging")
	assert.Equal(t, "cse", s.Filters.Search)

	s = Reduce(s, PrevPage{})
	assert.Equal(t, 0, s.Page, "paging clamps at zero")

	s = Reduce(s, GoToPage{Page: 3})
	s = Reduce(s, SelectTab{Tab: TabCatalog})
	assert.Equal(t, TabCatalog, s.Tab)
	assert.Equal(t, 0, s.Page)

	s = Reduce(s, SetBuilding{Building: "CENTR"})
	s = Reduce(s, SetDay{Day: "Monday"})
	s = Reduce(s, SetTimeOfDay{TimeOfDay: "evening"})
	s = Reduce(s, ClearFilters{})
	assert.True(t, s.Filters.IsZero())

	s = Reduce(s, ToggleSort{})
	assert.True(t, s.SortDesc)

	s = Reduce(s, SetPageSize{Size: 0})
	assert.Equal(t, DefaultPageSize, s.PageSize)
	s = Reduce(s, SetPageSize{Size: 5})
	assert.Equal(t, 5, s.PageSize)
}

func TestReduce_DoesNotMutate(t *testing.T) {
	before := NewState()
	_ = Reduce(before, SetSearch{Text: "x"})
	assert.Equal(t, NewState(), before)
}

func TestApply_Live(t *testing.T) {
	page := Apply(NewState(), fixture(), wednesdayEvening)

	require.Equal(t, 2, page.Total)
	assert.Equal(t, "MATH 20C", page.Rows[0].CourseCode, "most remaining first")
	assert.Equal(t, "CSE 110", page.Rows[1].CourseCode)
	assert.Equal(t, StatusLive, page.Rows[1].Status)
	assert.Equal(t, "50m", page.Rows[1].Remaining)
	assert.Equal(t, "6:00 PM - 7:20 PM", page.Rows[1].TimeRange)
	assert.InDelta(t, 30.0/80.0, page.Rows[1].Progress, 1e-9)
}

func TestApply_Upcoming(t *testing.T) {
	s := Reduce(NewState(), SelectTab{Tab: TabUpcoming})
	page := Apply(s, fixture(), wednesdayEvening)

	require.Equal(t, 2, page.Total)
	assert.Equal(t, "COGS 1", page.Rows[0].CourseCode)
	assert.Equal(t, "30m", page.Rows[0].BeginsIn)
	assert.Equal(t, "BILD 1", page.Rows[1].CourseCode)
	assert.Equal(t, "1h 30m", page.Rows[1].BeginsIn)
}

func TestApply_CatalogFiltersAndSort(t *testing.T) {
	s := Reduce(NewState(), SelectTab{Tab: TabCatalog})
	page := Apply(s, fixture(), wednesdayEvening)
	assert.Equal(t, 6, page.Total, "catalog keeps unparseable times")
	assert.Equal(t, "BILD 1", page.Rows[0].CourseCode)

	building := Apply(Reduce(s, SetBuilding{Building: "centr"}), fixture(), wednesdayEvening)
	assert.Equal(t, 3, building.Total)

	day := Apply(Reduce(s, SetDay{Day: "Thursday"}), fixture(), wednesdayEvening)
	require.Equal(t, 1, day.Total)
	assert.Equal(t, "HIST 10", day.Rows[0].CourseCode)

	morning := Apply(Reduce(s, SetTimeOfDay{TimeOfDay: "morning"}), fixture(), wednesdayEvening)
	require.Equal(t, 1, morning.Total)

	search := Apply(Reduce(s, SetSearch{Text: "calculus"}), fixture(), wednesdayEvening)
	require.Equal(t, 1, search.Total)
	assert.Equal(t, "MATH 20C", search.Rows[0].CourseCode)

	desc := Apply(Reduce(s, ToggleSort{}), fixture(), wednesdayEvening)
	assert.Equal(t, page.Rows[0].CourseCode, desc.Rows[len(desc.Rows)-1].CourseCode)
}

func TestApply_DayFilterAcceptsTokens(t *testing.T) {
	s := Reduce(NewState(), SelectTab{Tab: TabCatalog})
	tests := []struct {
		day  string
		want int
	}{
		{"M", 4},
		{"Tu", 1},
		{"Th", 1},
		{"th", 1},
		{"Monday", 4},
		{"tuesday", 1},
		{"Sunday", 0},
		{"Xyz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			page := Apply(Reduce(s, SetDay{Day: tt.day}), fixture(), wednesdayEvening)
			assert.Equal(t, tt.want, page.Total)
		})
	}
}

func TestApply_Pagination(t *testing.T) {
	var items []catalog.ClassItem
	for i := 0; i < 45; i++ {
		items = append(items, item(fmt.Sprintf("CSE %03d", i), "Course", "CENTR", "10:00a-10:50a", "MWF"))
	}
	s := Reduce(Reduce(NewState(), SelectTab{Tab: TabCatalog}), GoToPage{Page: 2})

	page := Apply(s, items, wednesdayEvening)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Rows, 5)

	page = Apply(Reduce(s, GoToPage{Page: 99}), items, wednesdayEvening)
	assert.Equal(t, 2, page.Page, "clamped to last page")

	empty := Apply(s, nil, wednesdayEvening)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 0, empty.Page)
	assert.Empty(t, empty.Rows)
}

func TestApply_About(t *testing.T) {
	page := Apply(Reduce(NewState(), SelectTab{Tab: TabAbout}), fixture(), wednesdayEvening)
	assert.Zero(t, page.Total)
}

func TestTabTitles(t *testing.T) {
	var titles []string
	for _, tab := range Tabs {
		titles = append(titles, tab.Title())
	}
	assert.Equal(t, []string{"Live Lectures", "Upcoming", "Course Catalog", "About"}, titles)
}

func TestBuildings(t *testing.T) {
	assert.Equal(t, []string{"CENTR", "PCYNH", "YORK"}, Buildings(fixture()))
}
