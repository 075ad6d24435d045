package airtable

import (
	"context"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/sitin/internal/catalog"
)

// Tables names the tables a Source reads. An empty Descriptions skips the
// descriptions table. The *Base fields place a table in a base other than
// the client's own; empty means the client's base.
type Tables struct {
	Courses      string
	Sections     string
	Descriptions string

	CoursesBase      string
	SectionsBase     string
	DescriptionsBase string
}

// Source adapts a Client to catalog.Source.
type Source struct {
	client *Client
	tables Tables
}

// NewSource creates a catalog source over client.
func NewSource(client *Client, tables Tables) *Source {
	return &Source{client: client, tables: tables}
}

// Sections reads the sections table.
func (s *Source) Sections(ctx context.Context) ([]catalog.Section, error) {
	records, err := s.client.AllIn(ctx, s.tables.SectionsBase, s.tables.Sections)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Section, len(records))
	for i, r := range records {
		f := fields(r.Fields)
		out[i] = catalog.Section{
			ID:             r.ID,
			SubjectCode:    f.str("Subject Code"),
			CourseLink:     f.first("Course Link"),
			MeetingType:    f.str("Meeting Type"),
			Building:       f.str("Building"),
			Room:           f.str("Room"),
			Instructor:     f.str("Instructor"),
			Time:           f.str("Time"),
			Days:           f.str("Days"),
			SeatLimit:      f.int("Seat Limit"),
			AvailableSeats: f.int("Available Seats"),
		}
	}
	return out, nil
}

// Courses reads the courses table.
func (s *Source) Courses(ctx context.Context) ([]catalog.Course, error) {
	records, err := s.client.AllIn(ctx, s.tables.CoursesBase, s.tables.Courses)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Course, len(records))
	for i, r := range records {
		f := fields(r.Fields)
		out[i] = catalog.Course{
			ID:           r.ID,
			CourseNumber: f.str("Course Number"),
			SubjectCode:  f.str("Subject Code"),
			Name:         f.str("Course Name"),
			Units:        f.str("Units"),
			Department:   f.str("Department"),
			SectionIDs:   f.list("Sections"),
		}
	}
	return out, nil
}

// Descriptions reads the descriptions table, or returns nil when none is
// configured.
func (s *Source) Descriptions(ctx context.Context) ([]catalog.Description, error) {
	if s.tables.Descriptions == "" {
		return nil, nil
	}
	records, err := s.client.AllIn(ctx, s.tables.DescriptionsBase, s.tables.Descriptions)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Description, 0, len(records))
	for _, r := range records {
		f := fields(r.Fields)
		code := f.str("Course Code")
		if code == "" {
			continue
		}
		out = append(out, catalog.Description{
			CourseCode:    code,
			Title:         f.str("Title"),
			Description:   f.str("Description"),
			Prerequisites: f.str("Prerequisites"),
			Department:    f.str("Department"),
			Units:         f.str("Units"),
		})
	}
	return out, nil
}

var _ catalog.Source = (*Source)(nil)

// fields reads loosely typed Airtable cell values.
type fields map[string]any

func (f fields) str(key string) string {
	switch v := f[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// int accepts numbers or numeric strings; anything else is 0.
func (f fields) int(key string) int {
	switch v := f[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}

// first returns a linked-record cell's first ID; link cells may also be
// plain strings.
func (f fields) first(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}
	return ""
}

func (f fields) list(key string) []string {
	raw, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
