package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/recall/internal/report"
	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/transcript"
)

// SearchFunc runs the search whose results the browser shows.
type SearchFunc func(ctx context.Context) ([]search.Result, error)

// ViewState represents the current state of the browser.
type ViewState int

const (
	StateLoading ViewState = iota
	StateList
	StateFilter
	StateDetail
)

// dialectTabs is the tab cycle order; the empty dialect means all.
var dialectTabs = []transcript.Dialect{
	transcript.DialectUnknown,
	transcript.DialectClaude,
	transcript.DialectCopilot,
}

// Model is the browser model that holds all application state.
type Model struct {
	State ViewState
	Err   error

	query   string
	search  SearchFunc
	results []search.Result

	// filtered indexes into results.
	filtered []int
	cursor   int
	offset   int
	tab      int

	FilterInput textinput.Model
	Viewport    viewport.Model
	keys        KeyMap

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a browser for the results of fn. query is shown in the title.
func NewModel(query string, fn SearchFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 200

	m := Model{
		State:       StateLoading,
		query:       query,
		search:      fn,
		FilterInput: ti,
		Viewport:    viewport.New(100, 26),
		keys:        DefaultKeyMap,

		// Default dimensions (will be updated on WindowSizeMsg)
		Width:  100,
		Height: 30,
	}
	return m
}

// Init starts the search.
func (m Model) Init() tea.Cmd {
	fn := m.search
	return func() tea.Msg {
		results, err := fn(context.Background())
		return resultsLoadedMsg{results: results, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = msg.Width
		m.Viewport.Height = m.detailHeight()
		m.clampOffset()
		return m, nil

	case resultsLoadedMsg:
		m.results = msg.results
		m.Err = msg.err
		m.State = StateList
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		switch m.State {
		case StateLoading:
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
		case StateList:
			return m.updateList(msg)
		case StateFilter:
			return m.updateFilter(msg)
		case StateDetail:
			return m.updateDetail(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PageUp):
		m.cursor = max(0, m.cursor-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		m.cursor = max(0, min(len(m.filtered)-1, m.cursor+m.visibleRows()))
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(0, len(m.filtered)-1)

	case key.Matches(msg, m.keys.Enter):
		if r := m.Selected(); r != nil {
			m.Viewport.Width = m.Width
			m.Viewport.Height = m.detailHeight()
			m.Viewport.SetContent(report.FormatSession(r))
			m.Viewport.GotoTop()
			m.State = StateDetail
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.State = StateFilter
		return m, m.FilterInput.Focus()

	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % len(dialectTabs)
		m.applyFilter()
	}

	m.clampOffset()
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.FilterInput.Blur()
		m.State = StateList
		return m, nil
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.State = StateList
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case msg.String() == "q":
		m.State = StateList
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// applyFilter recomputes the visible rows from the dialect tab and the
// filter text, keeping result order.
func (m *Model) applyFilter() {
	m.filtered = nil
	needle := strings.ToLower(strings.TrimSpace(m.FilterInput.Value()))
	dialect := dialectTabs[m.tab]

	for i := range m.results {
		r := &m.results[i]
		if dialect != transcript.DialectUnknown && r.Dialect != dialect {
			continue
		}
		if needle != "" && !strings.Contains(haystack(r), needle) {
			continue
		}
		m.filtered = append(m.filtered, i)
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
	m.clampOffset()
}

func haystack(r *search.Result) string {
	parts := []string{r.ID, r.CWD, r.GitBranch}
	if len(r.UserMessages) > 0 {
		parts = append(parts, r.UserMessages[0])
	}
	parts = append(parts, r.Tools...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Selected returns the result under the cursor, or nil.
func (m Model) Selected() *search.Result {
	if len(m.filtered) == 0 {
		return nil
	}
	return &m.results[m.filtered[m.cursor]]
}

// Visible returns the number of rows that pass the current filters.
func (m Model) Visible() int {
	return len(m.filtered)
}

// Dialect returns the active dialect tab; empty means all.
func (m Model) Dialect() transcript.Dialect {
	return dialectTabs[m.tab]
}

func (m Model) visibleRows() int {
	// title, header, status bar
	rows := m.Height - 4
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Model) detailHeight() int {
	h := m.Height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) clampOffset() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
