// Package history provides SQLite-backed persistence for past searches and
// generated recaps. It is an audit trail, not an index: searches never read
// from it.
package history

import (
	"time"

	"github.com/berth-dev/recall/internal/search"
)

// Search is one recorded search run.
type Search struct {
	ID          string         `json:"id"`
	Query       string         `json:"query"`
	Options     search.Options `json:"options"`
	ResultCount int            `json:"resultCount"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ResultRow is one ranked hit of a recorded search.
type ResultRow struct {
	SearchID  string `json:"searchId"`
	Rank      int    `json:"rank"` // 1-based
	SessionID string `json:"sessionId"`
	Dialect   string `json:"dialect"`
	Score     int    `json:"score"`
	Path      string `json:"path"`
}

// StoredRecap is a cached recap body for one version of a session.
type StoredRecap struct {
	SessionID string
	EndedAt   time.Time
	Model     string
	Body      string // JSON
	CreatedAt time.Time
}
