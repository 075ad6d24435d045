// Package board is the terminal lecture board: live, upcoming and catalog
// tables with filters, plus an ask prompt backed by the course assistant.
package board

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

const (
	// DefaultInterval is how often lectures are reclassified.
	DefaultInterval = time.Minute

	historySize   = 30
	fetchTimeout  = 30 * time.Second
	askTimeout    = 90 * time.Second
	progressWidth = 20
)

// Loader fetches the current lecture records.
type Loader func(ctx context.Context) ([]catalog.ClassItem, error)

// Config configures the board.
type Config struct {
	Load Loader

	// Ask is optional. Without it the ask prompt is disabled.
	Ask assistant.Answerer

	Window   time.Duration
	Interval time.Duration
	Now      func() time.Time
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeAsk
)

var (
	dayCycle       = []string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	timeOfDayCycle = []string{"", schedule.Morning, schedule.Afternoon, schedule.Evening}
)

// Model is the bubbletea model for the board.
type Model struct {
	cfg Config

	state     view.State
	items     []catalog.ClassItem
	now       time.Time
	fetchedAt time.Time
	loading   bool
	err       error
	quitting  bool

	// liveHistory holds the live lecture count at each tick.
	liveHistory []float64

	mode       mode
	input      textinput.Model
	transcript *assistant.Transcript
	asking     bool
	askErr     error

	bar progress.Model
}

type (
	tickMsg   time.Time
	itemsMsg  []catalog.ClassItem
	errMsg    struct{ err error }
	answerMsg struct {
		reply assistant.Message
		err   error
	}
)

// New creates a board model.
func New(cfg Config) Model {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Window <= 0 {
		cfg.Window = schedule.DefaultUpcomingWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60

	return Model{
		cfg:        cfg,
		state:      view.NewState(),
		now:        cfg.Now(),
		loading:    true,
		input:      input,
		transcript: assistant.NewTranscript(),
		bar: progress.New(
			progress.WithGradient("#00ffff", "#ff00ff"),
			progress.WithWidth(progressWidth),
			progress.WithoutPercentage(),
		),
	}
}

// Init starts the reclassification tick and the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.cfg.Interval), fetch(m.cfg.Load))
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetch(load Loader) tea.Cmd {
	return func() tea.Msg {
		if load == nil {
			return itemsMsg(nil)
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		items, err := load(ctx)
		if err != nil {
			return errMsg{err}
		}
		return itemsMsg(items)
	}
}

func ask(tr *assistant.Transcript, a assistant.Answerer, q string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		reply, err := tr.Ask(ctx, a, q)
		return answerMsg{reply: reply, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)

	case tickMsg:
		// Reclassify against the new instant; records are not refetched.
		m.now = m.cfg.Now()
		m.recordLive()
		return m, tick(m.cfg.Interval)

	case itemsMsg:
		m.items = []catalog.ClassItem(msg)
		m.loading = false
		m.err = nil
		m.now = m.cfg.Now()
		m.fetchedAt = m.now
		m.recordLive()
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case answerMsg:
		m.asking = false
		m.askErr = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, fetch(m.cfg.Load)
	case "tab":
		m.state = view.Reduce(m.state, view.SelectTab{Tab: shiftTab(m.state.Tab, 1)})
	case "shift+tab":
		m.state = view.Reduce(m.state, view.SelectTab{Tab: shiftTab(m.state.Tab, -1)})
	case "1", "2", "3", "4":
		m.state = view.Reduce(m.state, view.SelectTab{Tab: view.Tabs[msg.String()[0]-'1']})
	case "n", "right":
		m.state = view.Reduce(m.state, view.NextPage{})
	case "p", "left":
		m.state = view.Reduce(m.state, view.PrevPage{})
	case "s":
		m.state = view.Reduce(m.state, view.ToggleSort{})
	case "b":
		m.state = view.Reduce(m.state, view.SetBuilding{Building: next(buildingCycle(m.items), m.state.Filters.Building)})
	case "d":
		m.state = view.Reduce(m.state, view.SetDay{Day: next(dayCycle, m.state.Filters.Day)})
	case "t":
		m.state = view.Reduce(m.state, view.SetTimeOfDay{TimeOfDay: next(timeOfDayCycle, m.state.Filters.TimeOfDay)})
	case "c":
		m.state = view.Reduce(m.state, view.ClearFilters{})
	case "/":
		m.mode = modeSearch
		m.input.Placeholder = "search code, title or instructor"
		m.input.SetValue(m.state.Filters.Search)
		return m, m.input.Focus()
	case "a":
		if m.cfg.Ask == nil {
			return m, nil
		}
		m.mode = modeAsk
		m.input.Placeholder = "ask about courses, e.g. large evening classes on Tuesday"
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		current := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		if current == modeSearch {
			m.state = view.Reduce(m.state, view.SetSearch{Text: value})
			return m, nil
		}
		if value == "" || m.asking {
			return m, nil
		}
		m.asking = true
		m.askErr = nil
		return m, ask(m.transcript, m.cfg.Ask, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) recordLive() {
	count := float64(len(catalog.Live(m.items, m.now)))
	m.liveHistory = append(m.liveHistory, count)
	if len(m.liveHistory) > historySize {
		m.liveHistory = m.liveHistory[1:]
	}
}

func shiftTab(current view.Tab, delta int) view.Tab {
	n := len(view.Tabs)
	for i, t := range view.Tabs {
		if t == current {
			return view.Tabs[((i+delta)%n+n)%n]
		}
	}
	return view.TabLive
}

func buildingCycle(items []catalog.ClassItem) []string {
	return append([]string{""}, view.Buildings(items)...)
}

// next returns the value after current in values, wrapping to the start.
func next(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}
