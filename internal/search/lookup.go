// lookup.go resolves a single session by id or id prefix.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/berth-dev/recall/internal/transcript"
)

// ErrNotFound is returned by Lookup when no session matches.
var ErrNotFound = errors.New("session not found")

// AmbiguousError is returned by Lookup when a prefix matches several sessions.
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("session prefix %q is ambiguous: matches %s", e.Prefix, strings.Join(e.Matches, ", "))
}

// Lookup parses every transcript under the searcher's sources and returns the
// session whose id equals id, or the only one whose id starts with it.
func (s *Searcher) Lookup(ctx context.Context, id string) (*Result, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, ErrNotFound
	}

	slots, err := s.parseAll(ctx, s.candidates(Options{}), func(path string) *Result {
		sess := transcript.ParseFile(path)
		if sess == nil || !strings.HasPrefix(strings.ToLower(sess.ID), id) {
			return nil
		}
		return &Result{Session: *sess, Score: 1, Path: path}
	})
	if err != nil {
		return nil, err
	}

	var matches []*Result
	for _, r := range slots {
		if r == nil {
			continue
		}
		if strings.ToLower(r.ID) == id {
			return r, nil
		}
		matches = append(matches, r)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return matches[0], nil
	}

	ids := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m.ID] {
			seen[m.ID] = true
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return nil, &AmbiguousError{Prefix: id, Matches: ids}
}
