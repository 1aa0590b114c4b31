// Package report renders sessions, search results and activity summaries as
// terminal-friendly text.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/transcript"
)

// recentRequests is how many trailing user messages "where we left off" shows.
const recentRequests = 3

// snippetWidth bounds single-line previews of user messages.
const snippetWidth = 100

// FormatSession produces a human-readable summary of one session.
func FormatSession(r *search.Result) string {
	var b strings.Builder
	s := &r.Session

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "  Session %s\n", s.ID)
	b.WriteString("========================================\n")
	b.WriteString("\n")

	dialect := string(s.Dialect)
	if s.Version != "" {
		dialect += " " + s.Version
	}
	fmt.Fprintf(&b, "Agent:       %s\n", dialect)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started:     %s\n", s.StartedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "Ended:       %s (%s)\n", s.EndedAt.Local().Format("2006-01-02 15:04"), formatDuration(s.Duration()))
	}
	if s.CWD != "" {
		fmt.Fprintf(&b, "Directory:   %s\n", s.CWD)
	}
	if s.GitBranch != "" {
		fmt.Fprintf(&b, "Branch:      %s\n", s.GitBranch)
	}
	fmt.Fprintf(&b, "Messages:    %d (%d from user)\n", s.MessageCount, len(s.UserMessages))
	if r.Path != "" {
		fmt.Fprintf(&b, "Transcript:  %s\n", r.Path)
	}
	b.WriteString("\n")

	if len(s.UserMessages) > 0 {
		b.WriteString("First request:\n")
		fmt.Fprintf(&b, "  %s\n", Snippet(s.UserMessages[0], snippetWidth*3))
		b.WriteString("\n")
	}

	if len(s.UserMessages) > 1 {
		b.WriteString("Where we left off:\n")
		start := len(s.UserMessages) - recentRequests
		if start < 1 {
			start = 1
		}
		for _, m := range s.UserMessages[start:] {
			fmt.Fprintf(&b, "  - %s\n", Snippet(m, snippetWidth))
		}
		b.WriteString("\n")
	}

	writeList(&b, "Tools", s.Tools)
	writeList(&b, "Files", s.Files)
	writeList(&b, "Models", s.Models)

	if len(s.ModelTokens) > 0 {
		b.WriteString("Tokens:\n")
		fmt.Fprintf(&b, "  %-28s %10s %10s %10s %10s\n", "MODEL", "INPUT", "OUTPUT", "CACHE-W", "CACHE-R")
		for _, m := range sortedModels(s.ModelTokens) {
			u := s.ModelTokens[m]
			fmt.Fprintf(&b, "  %-28s %10d %10d %10d %10d\n", m, u.Input, u.Output, u.CacheWrite, u.CacheRead)
		}
		fmt.Fprintf(&b, "  %-28s %10d %10d %10d %10d\n", "total", s.Tokens.Input, s.Tokens.Output, s.Tokens.CacheWrite, s.Tokens.CacheRead)
	}

	b.WriteString("========================================\n")

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
	b.WriteString("\n")
}

func sortedModels(m map[string]transcript.TokenUsage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatResults renders a ranked result list, one block per session.
func FormatResults(results []search.Result) string {
	if len(results) == 0 {
		return "No matching sessions.\n"
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%2d. %s  [%s]  score %d\n", i+1, ShortID(r.ID), r.Dialect, r.Score)

		when := r.EndedAt.Local().Format("2006-01-02 15:04")
		if r.CWD != "" {
			fmt.Fprintf(&b, "    %s  %s\n", when, r.CWD)
		} else {
			fmt.Fprintf(&b, "    %s\n", when)
		}
		if len(r.UserMessages) > 0 {
			fmt.Fprintf(&b, "    %s\n", Snippet(r.UserMessages[0], snippetWidth))
		}
		if len(r.MatchedIn) > 0 {
			fmt.Fprintf(&b, "    matched: %s\n", strings.Join(r.MatchedIn, ", "))
		}
	}
	return b.String()
}

// FormatRecap renders an LLM recap under the session it describes.
func FormatRecap(sessionID string, rc *recap.Recap) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", rc.Title)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", len(rc.Title)))
	fmt.Fprintf(&b, "Session: %s\n\n", sessionID)
	if rc.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", rc.Summary)
	}

	sections := []struct {
		title string
		items []string
	}{
		{"Accomplished", rc.Accomplished},
		{"Open threads", rc.OpenThreads},
		{"Next steps", rc.NextSteps},
	}
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", sec.title)
		for _, it := range sec.items {
			fmt.Fprintf(&b, "  - %s\n", it)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// WriteReport writes content to path, creating the parent directory.
func WriteReport(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}

// Activity aggregates the event log.
type Activity struct {
	Searches      int
	Recaps        int
	SessionsShown int
	AvgSearch     time.Duration
	LastSearch    time.Time
}

// SummarizeActivity computes an Activity from log events.
func SummarizeActivity(events []log.LogEvent) Activity {
	var (
		a     Activity
		total int64
	)
	for _, e := range events {
		switch e.Event {
		case log.EventSearchComplete:
			a.Searches++
			total += e.DurationMs
			if e.Time.After(a.LastSearch) {
				a.LastSearch = e.Time
			}
		case log.EventRecapGenerated:
			a.Recaps++
		case log.EventSessionShown:
			a.SessionsShown++
		}
	}
	if a.Searches > 0 {
		a.AvgSearch = time.Duration(total/int64(a.Searches)) * time.Millisecond
	}
	return a
}

// FormatActivity renders an Activity as a short footer.
func FormatActivity(a Activity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Searches:    %d", a.Searches)
	if a.Searches > 0 {
		fmt.Fprintf(&b, " (avg %s, last %s)", formatDuration(a.AvgSearch), a.LastSearch.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Shown:       %d\n", a.SessionsShown)
	fmt.Fprintf(&b, "Recaps:      %d\n", a.Recaps)
	return b.String()
}

// ShortID returns the first eight characters of a session id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Snippet collapses whitespace in s and truncates it to width runes.
func Snippet(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// formatDuration produces a human-readable duration string such as "5m 32s"
// or "1h 12m 5s". Sub-second durations are shown as "< 1s".
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
