package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

const (
	toolAskCourses   = "ask_courses"
	toolLiveLectures = "live_lectures"

	errProcessRequest = "Failed to process request"
	maxPageSize       = 200
)

var (
	errInvalidArgument = errors.New("invalid argument")
	errUnavailable     = errors.New("service is not configured")
)

type askInput struct {
	Query string `json:"query" jsonschema:"Question about UCSD courses, e.g. 'small evening CS classes on Tuesday'"`
}

type askOutput struct {
	Response string           `json:"response" jsonschema:"Assistant reply in markdown"`
	Cards    []assistant.Card `json:"cards" jsonschema:"Structured course cards for the recommended courses"`
	QueryID  string           `json:"queryId" jsonschema:"Identifier of this question in the server logs"`
}

type lecturesInput struct {
	Tab       string `json:"tab,omitempty" jsonschema:"Table to list: live, upcoming or catalog (default: live)"`
	Search    string `json:"search,omitempty" jsonschema:"Matches course code, name or professor"`
	Building  string `json:"building,omitempty" jsonschema:"Exact building code, e.g. CENTR"`
	Day       string `json:"day,omitempty" jsonschema:"Weekday letter: M, Tu, W, Th or F"`
	TimeOfDay string `json:"timeOfDay,omitempty" jsonschema:"morning, afternoon or evening"`
	Page      int    `json:"page,omitempty" jsonschema:"Zero-based page number (default: 0)"`
	PageSize  int    `json:"pageSize,omitempty" jsonschema:"Rows per page, at most 200 (default: 20)"`
}

type lectureRow struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Professor string  `json:"professor"`
	Building  string  `json:"building"`
	Room      string  `json:"room"`
	Days      string  `json:"days"`
	Time      string  `json:"time"`
	Capacity  int     `json:"capacity"`
	Status    string  `json:"status,omitempty"`
	Remaining string  `json:"remaining,omitempty"`
	BeginsIn  string  `json:"beginsIn,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
}

type lecturesOutput struct {
	Tab         string       `json:"tab"`
	Page        int          `json:"page"`
	TotalPages  int          `json:"totalPages"`
	Total       int          `json:"total"`
	RefreshedAt string       `json:"refreshedAt,omitempty" jsonschema:"RFC 3339 time of the last catalog refresh"`
	Rows        []lectureRow `json:"rows"`
}

func (s *Server) registerTools() {
	if s.deps.Assistant != nil {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        toolAskCourses,
			Description: "Ask the UCSD course assistant which courses fit a question. Understands times ('after 6pm'), class size ('small'), time of day and weekdays. Returns a markdown reply plus structured course cards.",
		}, instrumented(s, toolAskCourses, s.askCourses))
	} else {
		s.logger.Warn(context.Background(), "assistant not configured, skipping ask_courses")
	}

	if s.deps.Catalog != nil {
		mcp.AddTool(s.mcp, &mcp.Tool{
			Name:        toolLiveLectures,
			Description: "List lectures happening now, starting soon or in the full catalog, with optional search, building, day and time-of-day filters.",
		}, instrumented(s, toolLiveLectures, s.liveLectures))
	} else {
		s.logger.Warn(context.Background(), "catalog not configured, skipping live_lectures")
	}
}

func (s *Server) askCourses(ctx context.Context, _ *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, askOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, askOutput{}, assistant.ErrEmptyQuery
	}
	if s.deps.Assistant == nil {
		return nil, askOutput{}, fmt.Errorf("assistant: %w", errUnavailable)
	}

	answer, err := s.deps.Assistant.Answer(ctx, in.Query)
	if err != nil {
		return nil, askOutput{}, err
	}
	cards := answer.Cards
	if cards == nil {
		cards = []assistant.Card{}
	}
	return nil, askOutput{Response: answer.Text, Cards: cards, QueryID: answer.QueryID}, nil
}

func (s *Server) liveLectures(_ context.Context, _ *mcp.CallToolRequest, in lecturesInput) (*mcp.CallToolResult, lecturesOutput, error) {
	if s.deps.Catalog == nil {
		return nil, lecturesOutput{}, fmt.Errorf("catalog: %w", errUnavailable)
	}
	state, err := lecturesState(in)
	if err != nil {
		return nil, lecturesOutput{}, err
	}

	page := view.ApplyWindow(state, s.deps.Catalog.Items(), s.deps.Window, s.deps.Now())
	out := lecturesOutput{
		Tab:        string(state.Tab),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		Rows:       make([]lectureRow, 0, len(page.Rows)),
	}
	if at := s.deps.Catalog.RefreshedAt(); !at.IsZero() {
		out.RefreshedAt = at.Format(time.RFC3339)
	}
	for _, r := range page.Rows {
		out.Rows = append(out.Rows, lectureRow{
			Code:      r.CourseCode,
			Name:      r.CourseName,
			Professor: r.Professor,
			Building:  r.Building,
			Room:      r.Room,
			Days:      r.Days,
			Time:      r.TimeRange,
			Capacity:  r.Capacity,
			Status:    r.Status,
			Remaining: r.Remaining,
			BeginsIn:  r.BeginsIn,
			Progress:  r.Progress,
		})
	}
	return nil, out, nil
}

// lecturesState replays the tool arguments through the view reducer.
func lecturesState(in lecturesInput) (view.State, error) {
	s := view.NewState()

	if in.Tab != "" {
		switch t := view.Tab(strings.ToLower(in.Tab)); t {
		case view.TabLive, view.TabUpcoming, view.TabCatalog:
			s = view.Reduce(s, view.SelectTab{Tab: t})
		default:
			return s, fmt.Errorf("%w: unknown tab %q", errInvalidArgument, in.Tab)
		}
	}
	s = view.Reduce(s, view.SetSearch{Text: in.Search})
	s = view.Reduce(s, view.SetBuilding{Building: in.Building})
	s = view.Reduce(s, view.SetDay{Day: in.Day})
	s = view.Reduce(s, view.SetTimeOfDay{TimeOfDay: in.TimeOfDay})

	if in.PageSize != 0 {
		if in.PageSize < 0 || in.PageSize > maxPageSize {
			return s, fmt.Errorf("%w: pageSize must be between 1 and %d", errInvalidArgument, maxPageSize)
		}
		s = view.Reduce(s, view.SetPageSize{Size: in.PageSize})
	}
	if in.Page > 0 {
		s = view.Reduce(s, view.GoToPage{Page: in.Page})
	}
	return s, nil
}
