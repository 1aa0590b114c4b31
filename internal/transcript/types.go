// Package transcript normalizes coding-agent transcript logs into a single
// dialect-independent session record.
package transcript

import "time"

// Dialect identifies the raw JSONL schema a transcript was written in.
type Dialect string

const (
	DialectUnknown Dialect = ""
	DialectClaude  Dialect = "claude"  // Claude Code project transcripts
	DialectCopilot Dialect = "copilot" // GitHub Copilot CLI session events
)

// unknownID is the identity assigned when neither the file name nor the
// records carry a session id.
const unknownID = "unknown"

// unknownModel buckets usage reported on a turn without a model id.
const unknownModel = "unknown"

// TokenUsage holds the four cumulative token counters.
type TokenUsage struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheWrite int64 `json:"cacheWrite"`
	CacheRead  int64 `json:"cacheRead"`
}

// Add accumulates o into u.
func (u *TokenUsage) Add(o TokenUsage) {
	u.Input += o.Input
	u.Output += o.Output
	u.CacheWrite += o.CacheWrite
	u.CacheRead += o.CacheRead
}

// Total returns the sum of all four counters.
func (u TokenUsage) Total() int64 {
	return u.Input + u.Output + u.CacheWrite + u.CacheRead
}

// Session is the canonical record produced from one transcript.
// Tools, Files and Models are sets rendered as sorted slices.
type Session struct {
	ID           string                `json:"id"`
	Dialect      Dialect               `json:"dialect"`
	Version      string                `json:"version,omitempty"`
	CWD          string                `json:"cwd,omitempty"`
	GitBranch    string                `json:"gitBranch,omitempty"`
	StartedAt    time.Time             `json:"startedAt"`
	EndedAt      time.Time             `json:"endedAt"`
	MessageCount int                   `json:"messageCount"`
	Tokens       TokenUsage            `json:"tokens"`
	ModelTokens  map[string]TokenUsage `json:"modelTokens"`
	UserMessages []string              `json:"userMessages"`
	Tools        []string              `json:"tools"`
	Files        []string              `json:"files"`
	Models       []string              `json:"models"`
}

// Duration returns the wall-clock span between the first and last turn.
func (s *Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}
