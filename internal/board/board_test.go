package board

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

// Wednesday 2025-01-08, 6:30 PM Pacific.
var wednesdayEvening = time.Date(2025, time.January, 8, 18, 30, 0, 0, schedule.Pacific)

func lectures() []catalog.ClassItem {
	return []catalog.ClassItem{
		{ID: "1", CourseCode: "CSE 110", CourseName: "Software Engineering", Professor: "Politz, Joe", Building: "CENTR", Room: "115", Capacity: 300, Time: "6:00p-7:20p", Days: "MWF"},
		{ID: "2", CourseCode: "COGS 1", CourseName: "Intro to Cognitive Science", Professor: "Boyle, Mary", Building: "PCYNH", Room: "106", Capacity: 200, Time: "7:00p-8:20p", Days: "MW"},
		{ID: "3", CourseCode: "HIST 10", CourseName: "Ancient History", Professor: "Staff", Building: "YORK", Room: "2722", Capacity: 80, Time: "9:00a-9:50a", Days: "TuTh"},
	}
}

func newModel(ans assistant.Answerer) Model {
	now := wednesdayEvening
	return New(Config{
		Load: func(context.Context) ([]catalog.ClassItem, error) { return lectures(), nil },
		Ask:  ans,
		Now:  func() time.Time { return now },
	})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNew(t *testing.T) {
	m := newModel(nil)
	assert.Equal(t, DefaultInterval, m.cfg.Interval)
	assert.Equal(t, schedule.DefaultUpcomingWindow, m.cfg.Window)
	assert.True(t, m.loading)
	assert.NotNil(t, m.Init())
}

func TestUpdate_ItemsAndTick(t *testing.T) {
	m, _ := send(t, newModel(nil), itemsMsg(lectures()))
	assert.False(t, m.loading)
	assert.Equal(t, []float64{1}, m.liveHistory)

	m, cmd := send(t, m, tickMsg(wednesdayEvening.Add(time.Minute)))
	assert.NotNil(t, cmd, "tick reschedules itself")
	assert.Len(t, m.liveHistory, 2)
	assert.Len(t, m.items, 3, "tick does not refetch")

	out := m.View()
	assert.Contains(t, out, "Live Lectures")
	assert.Contains(t, out, "CSE 110")
	assert.Contains(t, out, "50m")
	assert.NotContains(t, out, "HIST 10")
}

func TestUpdate_FetchCommand(t *testing.T) {
	m := newModel(nil)
	m, cmd := send(t, m, key("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.loading)

	msg := cmd()
	items, ok := msg.(itemsMsg)
	require.True(t, ok)
	assert.Len(t, items, 3)
}

func TestUpdate_FetchError(t *testing.T) {
	m, _ := send(t, newModel(nil), errMsg{errors.New("airtable down")})
	assert.Contains(t, m.View(), "airtable down")
}

func TestUpdate_TabsAndFilters(t *testing.T) {
	m, _ := send(t, newModel(nil), itemsMsg(lectures()))

	m, _ = send(t, m, key("tab"))
	assert.Equal(t, view.TabUpcoming, m.state.Tab)
	assert.Contains(t, m.View(), "COGS 1")
	assert.Contains(t, m.View(), "30m")

	m, _ = send(t, m, key("3"))
	assert.Equal(t, view.TabCatalog, m.state.Tab)
	assert.Contains(t, m.View(), "HIST 10")

	m, _ = send(t, m, key("d"), key("d"))
	assert.Equal(t, "Tuesday", m.state.Filters.Day)
	assert.NotContains(t, m.View(), "CSE 110")

	m, _ = send(t, m, key("c"), key("b"))
	assert.Equal(t, "CENTR", m.state.Filters.Building)

	m, _ = send(t, m, key("t"))
	assert.Equal(t, schedule.Morning, m.state.Filters.TimeOfDay)

	m, _ = send(t, m, key("s"))
	assert.True(t, m.state.SortDesc)

	m, _ = send(t, m, key("4"))
	assert.Contains(t, m.View(), "sit in")
}

func TestUpdate_Search(t *testing.T) {
	m, _ := send(t, newModel(nil), itemsMsg(lectures()), key("3"), key("/"))
	assert.Equal(t, modeSearch, m.mode)

	m = typeText(t, m, "cogn")
	m, _ = send(t, m, key("enter"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "cogn", m.state.Filters.Search)

	out := m.View()
	assert.Contains(t, out, "COGS 1")
	assert.NotContains(t, out, "CSE 110")
}

type stubAnswerer struct{ answer *assistant.Answer }

func (s stubAnswerer) Answer(context.Context, string) (*assistant.Answer, error) {
	return s.answer, nil
}

func TestUpdate_Ask(t *testing.T) {
	ans := stubAnswerer{answer: &assistant.Answer{
		Text: "Try this one.",
		Cards: []assistant.Card{{
			Code: "CSE 110", Title: "Software Engineering",
			Schedule: "Monday, Wednesday, Friday at 6:00p-7:20p", ClassSize: "300 seats",
		}},
	}}
	m, _ := send(t, newModel(ans), itemsMsg(lectures()), key("a"))
	require.Equal(t, modeAsk, m.mode)

	m = typeText(t, m, "big evening classes")
	m, cmd := send(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.asking)

	m, _ = send(t, m, cmd())
	assert.False(t, m.asking)
	require.Equal(t, 2, m.transcript.Len())

	out := m.View()
	assert.Contains(t, out, "big evening classes")
	assert.Contains(t, out, "CSE 110: Software Engineering")
	assert.Contains(t, out, "300 seats")
}

func TestUpdate_AskDisabledWithoutAnswerer(t *testing.T) {
	m, cmd := send(t, newModel(nil), key("a"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Nil(t, cmd)
}

func TestUpdate_EscLeavesInput(t *testing.T) {
	m, _ := send(t, newModel(nil), key("/"))
	m = typeText(t, m, "abc")
	m, _ = send(t, m, key("esc"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, m.state.Filters.Search)
}

func TestUpdate_Quit(t *testing.T) {
	m, cmd := send(t, newModel(nil), key("q"))
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestRenderReply_ParsesTextWithoutCards(t *testing.T) {
	out := renderReply(assistant.Message{
		Role:    assistant.RoleAssistant,
		Content: "Intro.\n\n1. **MATH 20C: Calculus III**\n\n- **Schedule**: Monday at 9:00a-9:50a",
	})
	assert.Contains(t, out, "Intro.")
	assert.Contains(t, out, "MATH 20C: Calculus III")
	assert.Contains(t, out, "Monday at 9:00a-9:50a")
}

func TestNext(t *testing.T) {
	assert.Equal(t, "Monday", next(dayCycle, ""))
	assert.Equal(t, "", next(dayCycle, "Friday"))
	assert.Equal(t, "", next(dayCycle, "Sunday"))
	assert.Equal(t, view.TabAbout, shiftTab(view.TabLive, -1))
}
