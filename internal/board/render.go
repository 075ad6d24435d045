package board

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	transcriptTail  = 4
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("45")).
			Bold(true).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	liveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("45")).
			Padding(0, 1)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1)
	footerKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	sparklineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
)

// View renders the board.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(" UCSD Sit-In Board "))
	b.WriteString("  " + labelStyle.Render("Now: ") + valueStyle.Render(schedule.FormatNow(m.now)))
	if !m.fetchedAt.IsZero() {
		b.WriteString("  " + dimStyle.Render("fetched "+schedule.FormatNow(m.fetchedAt)))
	}
	b.WriteString("\n\n" + m.renderTabs() + "\n")

	switch {
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("Could not load lectures: "+m.err.Error()) + "\n")
		b.WriteString(dimStyle.Render("Press r to retry.") + "\n")
	case m.loading:
		b.WriteString("\n" + dimStyle.Render("Loading lectures...") + "\n")
	case m.state.Tab == view.TabAbout:
		b.WriteString(renderAbout())
	default:
		b.WriteString(m.renderTable())
	}

	if m.state.Tab == view.TabLive && !m.loading {
		b.WriteString("\n" + sectionStyle.Render("┃ Live lectures over time") + "\n")
		b.WriteString(renderSparkline(m.liveHistory) + "\n")
	}

	b.WriteString(m.renderAsk())
	b.WriteString("\n" + m.renderFooter())
	return containerStyle.Render(b.String())
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(view.Tabs))
	for i, t := range view.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == m.state.Tab {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTable() string {
	page := view.ApplyWindow(m.state, m.items, m.cfg.Window, m.now)

	var b strings.Builder
	if filters := describeFilters(m.state.Filters); filters != "" {
		b.WriteString(dimStyle.Render("Filters: "+filters) + "\n")
	}
	if page.Total == 0 {
		b.WriteString("\n" + dimStyle.Render(emptyText(m.state.Tab)) + "\n")
		return b.String()
	}

	headers := []string{"Course", "Title", "Instructor", "Location", "Time", "Seats"}
	switch m.state.Tab {
	case view.TabLive:
		headers = append(headers, "Remaining", "Progress")
	case view.TabUpcoming:
		headers = append(headers, "Begins In")
	case view.TabCatalog:
		headers = append(headers, "Days")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...)
	for _, r := range page.Rows {
		row := []string{
			r.CourseCode,
			truncate(r.CourseName, 32),
			truncate(r.Professor, 24),
			strings.TrimSpace(r.Building + " " + r.Room),
			r.TimeRange,
			fmt.Sprintf("%d", r.Capacity),
		}
		switch m.state.Tab {
		case view.TabLive:
			row = append(row, liveStyle.Render(r.Remaining), m.bar.ViewAs(r.Progress))
		case view.TabUpcoming:
			row = append(row, r.BeginsIn)
		case view.TabCatalog:
			row = append(row, r.Days)
		}
		t.Row(row...)
	}
	b.WriteString(t.String() + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Page %d of %d  (%d lectures)", page.Page+1, page.TotalPages, page.Total)) + "\n")
	return b.String()
}

func (m Model) renderAsk() string {
	var b strings.Builder
	switch {
	case m.mode == modeSearch:
		b.WriteString("\n" + labelStyle.Render("Search: ") + m.input.View() + "\n")
	case m.mode == modeAsk:
		b.WriteString("\n" + labelStyle.Render("Ask: ") + m.input.View() + "\n")
	}
	if m.asking {
		b.WriteString(dimStyle.Render("Thinking...") + "\n")
	}

	msgs := m.transcript.Messages()
	if len(msgs) > transcriptTail {
		msgs = msgs[len(msgs)-transcriptTail:]
	}
	for _, msg := range msgs {
		if msg.Role == assistant.RoleUser {
			b.WriteString("\n" + labelStyle.Render("You: ") + msg.Content + "\n")
			continue
		}
		b.WriteString(renderReply(msg))
	}
	return b.String()
}

// renderReply prefers the structured cards; replies without them are parsed
// from their text.
func renderReply(msg assistant.Message) string {
	if len(msg.Cards) > 0 {
		var b strings.Builder
		for _, c := range msg.Cards {
			b.WriteString(renderCard(c) + "\n")
		}
		return b.String()
	}

	var b strings.Builder
	for _, block := range assistant.ParseReply(msg.Content) {
		if block.Course {
			b.WriteString(renderCard(block.ToCard()) + "\n")
			continue
		}
		b.WriteString(block.Text + "\n")
	}
	return b.String()
}

func renderCard(c assistant.Card) string {
	title := c.Title
	if c.Code != "" {
		title = c.Code + ": " + c.Title
	}
	lines := []string{valueStyle.Render(title)}
	for _, d := range []assistant.Detail{
		{Label: assistant.LabelSchedule, Value: c.Schedule},
		{Label: assistant.LabelLocation, Value: c.Location},
		{Label: assistant.LabelInstructor, Value: c.Instructor},
		{Label: assistant.LabelClassSize, Value: c.ClassSize},
		{Label: assistant.LabelUnits, Value: c.Units},
	} {
		if d.Value != "" {
			lines = append(lines, labelStyle.Render(d.Label+": ")+d.Value)
		}
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	spark.PushAll(data)
	spark.Draw()
	return sparklineStyle.Render(spark.View())
}

func renderAbout() string {
	return "\n" + strings.Join([]string{
		"Find lectures happening right now across campus and sit in.",
		"Live shows lectures in session, Upcoming those starting within the next",
		"two hours, and the Catalog lists every lecture section this quarter.",
		"",
		"Press a to ask the course assistant, e.g. \"small afternoon seminars on Friday\".",
	}, "\n") + "\n"
}

func (m Model) renderFooter() string {
	type binding struct{ key, desc string }
	keys := []binding{
		{"tab", "switch"}, {"/", "search"}, {"b", "building"}, {"d", "day"},
		{"t", "time"}, {"c", "clear"}, {"s", "sort"}, {"n/p", "page"},
		{"r", "refetch"},
	}
	if m.cfg.Ask != nil {
		keys = append(keys, binding{"a", "ask"})
	}
	keys = append(keys, binding{"q", "quit"})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = footerKeyStyle.Render("["+k.key+"]") + footerStyle.Render(" "+k.desc)
	}
	return strings.Join(parts, " ")
}

func describeFilters(f view.Filters) string {
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", f.Search))
	}
	for _, v := range []string{f.Building, f.Day, f.TimeOfDay} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func emptyText(tab view.Tab) string {
	switch tab {
	case view.TabLive:
		return "No lectures in session right now."
	case view.TabUpcoming:
		return "Nothing starting in the next two hours."
	}
	return "No lectures match."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
