package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/recall/internal/report"
	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/transcript"
)

// View renders the current state.
func (m Model) View() string {
	switch m.State {
	case StateLoading:
		return TitleStyle.Render("recall") + DimStyle.Render(" scanning transcripts...") + "\n"
	case StateDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	title := "recall"
	if m.query != "" {
		title += fmt.Sprintf(" %q", m.query)
	}
	b.WriteString(TitleStyle.Render(title) + " " + m.renderTabs())
	b.WriteString(DimStyle.Render(fmt.Sprintf("  %d sessions", len(m.filtered))) + "\n")

	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("Error: "+m.Err.Error()) + "\n")
		return b.String()
	}

	b.WriteString(m.renderHeader() + "\n")

	visible := m.visibleRows()
	end := min(m.offset+visible, len(m.filtered))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(&m.results[m.filtered[i]], i == m.cursor) + "\n")
	}
	for i := end - m.offset; i < visible; i++ {
		b.WriteString("\n")
	}

	if m.State == StateFilter {
		b.WriteString(StatusBarStyle.Render("Filter:") + " " + m.FilterInput.View())
	} else {
		b.WriteString(DimStyle.Render("  " + m.keys.helpLine()))
	}
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(dialectTabs))
	for i, d := range dialectTabs {
		label := string(d)
		if d == transcript.DialectUnknown {
			label = "all"
		}
		if i == m.tab {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = InactiveTabStyle.Render(label)
		}
	}
	return strings.Join(tabs, "")
}

type colWidths struct {
	dialect int
	id      int
	time    int
	score   int
	project int
	summary int
}

func (m Model) colWidths() colWidths {
	w := colWidths{
		dialect: 8,
		id:      9,
		time:    12,
		score:   6,
		project: 18,
	}
	used := w.dialect + w.id + w.time + w.score + w.project + 5
	w.summary = max(20, m.Width-used)
	return w
}

func (m Model) renderHeader() string {
	w := m.colWidths()
	cols := []string{
		pad("AGENT", w.dialect),
		pad("ID", w.id),
		pad("ENDED", w.time),
		pad("SCORE", w.score),
		pad("PROJECT", w.project),
		pad("FIRST REQUEST", w.summary),
	}
	return HeaderStyle.Render(strings.Join(cols, " "))
}

func (m Model) renderRow(r *search.Result, selected bool) string {
	w := m.colWidths()

	dialect := pad(string(r.Dialect), w.dialect)
	summary := ""
	if len(r.UserMessages) > 0 {
		summary = report.Snippet(r.UserMessages[0], w.summary)
	}
	project := r.CWD
	if i := strings.LastIndexAny(project, `/\`); i >= 0 {
		project = project[i+1:]
	}

	rest := strings.Join([]string{
		pad(report.ShortID(r.ID), w.id),
		pad(r.EndedAt.Local().Format("01-02 15:04"), w.time),
		pad(fmt.Sprintf("%d", r.Score), w.score),
		pad(project, w.project),
		summary,
	}, " ")

	if selected {
		return lipgloss.PlaceHorizontal(m.Width, lipgloss.Left, SelectedStyle.Render(dialect+" "+rest))
	}

	switch r.Dialect {
	case transcript.DialectClaude:
		dialect = claudeTag.Render(dialect)
	case transcript.DialectCopilot:
		dialect = copilotTag.Render(dialect)
	}
	return dialect + " " + rest
}

func (m Model) viewDetail() string {
	var b strings.Builder
	if r := m.Selected(); r != nil {
		b.WriteString(TitleStyle.Render("Session "+report.ShortID(r.ID)) + "\n")
	}
	b.WriteString(m.Viewport.View() + "\n")
	b.WriteString(DimStyle.Render(fmt.Sprintf("  esc: back  ↑/↓: scroll  %3.0f%%", m.Viewport.ScrollPercent()*100)))
	return b.String()
}

func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
