// Package search scores and filters parsed transcripts against a query.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/berth-dev/recall/internal/transcript"
)

// DefaultLimit is the result ceiling used when Options.Limit is not positive.
const DefaultLimit = 20

// Options describes one search request. Zero values mean "not set".
type Options struct {
	Query       string             `json:"query,omitempty"`
	Days        int                `json:"days,omitempty"`
	Since       time.Time          `json:"since"`
	Until       time.Time          `json:"until"`
	Tools       []string           `json:"tools,omitempty"`
	FilePattern string             `json:"filePattern,omitempty"`
	Limit       int                `json:"limit,omitempty"`
	Dialect     transcript.Dialect `json:"dialect,omitempty"` // empty selects every dialect
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

func (o Options) hasQuery() bool {
	return strings.TrimSpace(o.Query) != ""
}

func (o Options) acceptsDialect(d transcript.Dialect) bool {
	return o.Dialect == transcript.DialectUnknown || d == transcript.DialectUnknown || o.Dialect == d
}

// ParseDialect maps a user-facing selector ("all", "claude", "copilot") to a
// Dialect. "all" and "" select every dialect.
func ParseDialect(s string) (transcript.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return transcript.DialectUnknown, nil
	case string(transcript.DialectClaude):
		return transcript.DialectClaude, nil
	case string(transcript.DialectCopilot):
		return transcript.DialectCopilot, nil
	default:
		return transcript.DialectUnknown, fmt.Errorf("unknown dialect %q (want all, claude or copilot)", s)
	}
}

const dayLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC 3339. An empty string yields the zero time.
// A bare date is the start of that day in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}

// ParseUntil is ParseDate for an upper bound: a bare date covers the whole
// day, so it yields the last instant of that day.
func ParseUntil(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil || t.IsZero() {
		return t, err
	}
	if _, dayErr := time.Parse(dayLayout, strings.TrimSpace(s)); dayErr == nil {
		return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return t, nil
}
