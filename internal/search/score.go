// score.go computes the weighted lexical overlap between a query and a session.
package search

import (
	"strings"

	"github.com/berth-dev/recall/internal/transcript"
)

// Field categories reported in Result.MatchedIn.
const (
	MatchUserMessages = "userMessages"
	MatchTools        = "toolsUsed"
	MatchFiles        = "filesFromToolCalls"
)

const (
	weightUserMessage = 10
	weightTool        = 3
	weightFile        = 3
)

// Score returns the relevance of s for query and the categories that
// contributed. An empty query scores 1 so it never excludes anything.
// Every (term, field value) containment adds the field's weight; there is no
// cap and no length normalization.
func Score(s *transcript.Session, query string) (int, []string) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 1, nil
	}

	var (
		total   int
		matched []string
	)
	passes := []struct {
		category string
		weight   int
		values   []string
	}{
		{MatchUserMessages, weightUserMessage, s.UserMessages},
		{MatchTools, weightTool, s.Tools},
		{MatchFiles, weightFile, s.Files},
	}

	for _, p := range passes {
		hits := countHits(terms, p.values)
		if hits == 0 {
			continue
		}
		total += hits * p.weight
		matched = append(matched, p.category)
	}

	return total, matched
}

// countHits counts (term, value) pairs where the lower-cased value contains the term.
func countHits(terms, values []string) int {
	hits := 0
	for _, v := range values {
		lv := strings.ToLower(v)
		for _, term := range terms {
			if strings.Contains(lv, term) {
				hits++
			}
		}
	}
	return hits
}
