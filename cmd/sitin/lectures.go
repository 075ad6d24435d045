package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/services"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

var lecturesFlags struct {
	tab       string
	search    string
	building  string
	day       string
	timeOfDay string
	page      int
	pageSize  int
	desc      bool
	json      bool
}

func init() {
	f := lecturesCmd.Flags()
	f.StringVar(&lecturesFlags.tab, "tab", string(view.TabLive), "live, upcoming or catalog")
	f.StringVarP(&lecturesFlags.search, "search", "q", "", "match course code, name or professor")
	f.StringVar(&lecturesFlags.building, "building", "", "building code, e.g. CENTR")
	f.StringVar(&lecturesFlags.day, "day", "", "weekday: M, Tu, W, Th, F or a full name")
	f.StringVar(&lecturesFlags.timeOfDay, "time-of-day", "", "morning, afternoon or evening")
	f.IntVar(&lecturesFlags.page, "page", 0, "zero-based page")
	f.IntVar(&lecturesFlags.pageSize, "page-size", view.DefaultPageSize, "rows per page")
	f.BoolVar(&lecturesFlags.desc, "desc", false, "reverse the sort order")
	f.BoolVar(&lecturesFlags.json, "json", false, "print rows as JSON")
	rootCmd.AddCommand(lecturesCmd)
}

// lecturesCmd lists lectures from the record store
var lecturesCmd = &cobra.Command{
	Use:   "lectures",
	Short: "List live, upcoming or all lectures",
	Long: `List lectures read directly from Airtable.

Examples:
  # What is happening right now
  sitin lectures

  # Evening lectures starting in the next two hours in Center Hall
  sitin lectures --tab upcoming --building CENTR --time-of-day evening

  # Search the whole catalog
  sitin lectures --tab catalog -q "operating systems"`,
	Args: cobra.NoArgs,
	RunE: runLectures,
}

func runLectures(cmd *cobra.Command, _ []string) error {
	state, err := lecturesState()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, services.Needs{Catalog: true})
	if err != nil {
		return err
	}
	defer s.Close()

	store := s.reg.Catalog()
	if err := store.Refresh(ctx); err != nil {
		return fmt.Errorf("loading lectures: %w", err)
	}
	page := view.ApplyWindow(state, store.Items(), s.cfg.Schedule.UpcomingWindow.Duration(), time.Now())

	if lecturesFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	return printLectures(cmd.OutOrStdout(), state.Tab, page)
}

func lecturesState() (view.State, error) {
	s := view.NewState()
	switch t := view.Tab(strings.ToLower(lecturesFlags.tab)); t {
	case view.TabLive, view.TabUpcoming, view.TabCatalog:
		s = view.Reduce(s, view.SelectTab{Tab: t})
	default:
		return s, fmt.Errorf("unknown tab %q (want live, upcoming or catalog)", lecturesFlags.tab)
	}
	if lecturesFlags.pageSize <= 0 {
		return s, fmt.Errorf("page-size must be positive")
	}

	for _, a := range []view.Action{
		view.SetSearch{Text: lecturesFlags.search},
		view.SetBuilding{Building: lecturesFlags.building},
		view.SetDay{Day: lecturesFlags.day},
		view.SetTimeOfDay{TimeOfDay: lecturesFlags.timeOfDay},
		view.SetPageSize{Size: lecturesFlags.pageSize},
		view.GoToPage{Page: lecturesFlags.page},
	} {
		s = view.Reduce(s, a)
	}
	if lecturesFlags.desc {
		s = view.Reduce(s, view.ToggleSort{})
	}
	return s, nil
}

func printLectures(w io.Writer, tab view.Tab, page view.Page) error {
	if page.Total == 0 {
		_, err := fmt.Fprintf(w, "No lectures match on the %s tab.\n", tab.Title())
		return err
	}

	headers := []string{"Course", "Title", "Instructor", "Location", "Time"}
	switch tab {
	case view.TabLive:
		headers = append(headers, "Remaining")
	case view.TabUpcoming:
		headers = append(headers, "Begins In")
	default:
		headers = append(headers, "Days")
	}

	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for _, r := range page.Rows {
		row := []string{r.CourseCode, r.CourseName, r.Professor, location(r.ClassItem), r.TimeRange}
		switch tab {
		case view.TabLive:
			row = append(row, r.Remaining)
		case view.TabUpcoming:
			row = append(row, r.BeginsIn)
		default:
			row = append(row, r.Days)
		}
		t.Row(row...)
	}
	_, err := fmt.Fprintf(w, "%s\nPage %d of %d (%d lectures)\n",
		t.String(), page.Page+1, page.TotalPages, page.Total)
	return err
}

func location(item catalog.ClassItem) string {
	return strings.TrimSpace(item.Building + " " + item.Room)
}
