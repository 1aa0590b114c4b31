// filter.go holds the eligibility predicates applied before scoring.
package search

import (
	"strings"
	"time"

	"github.com/berth-dev/recall/internal/transcript"
)

// Eligible reports whether s passes every filter in o. now anchors the
// Days lower bound. Unset options always pass.
func Eligible(s *transcript.Session, o Options, now time.Time) bool {
	return inDateRange(s, o, now) &&
		usesTool(s, o.Tools) &&
		touchesFile(s, o.FilePattern)
}

// inDateRange compares the session end time only.
func inDateRange(s *transcript.Session, o Options, now time.Time) bool {
	since := o.Since
	if since.IsZero() && o.Days > 0 {
		since = now.AddDate(0, 0, -o.Days)
	}
	if !since.IsZero() && s.EndedAt.Before(since) {
		return false
	}
	if !o.Until.IsZero() && s.EndedAt.After(o.Until) {
		return false
	}
	return true
}

// usesTool passes when any requested name is a case-insensitive substring
// of any tool the session invoked.
func usesTool(s *transcript.Session, tools []string) bool {
	var wanted []string
	for _, t := range tools {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			wanted = append(wanted, t)
		}
	}
	if len(wanted) == 0 {
		return true
	}

	for _, have := range s.Tools {
		lh := strings.ToLower(have)
		for _, w := range wanted {
			if strings.Contains(lh, w) {
				return true
			}
		}
	}
	return false
}

// touchesFile passes when pattern is a case-insensitive substring of any
// referenced file path.
func touchesFile(s *transcript.Session, pattern string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return true
	}
	for _, f := range s.Files {
		if strings.Contains(strings.ToLower(f), pattern) {
			return true
		}
	}
	return false
}
