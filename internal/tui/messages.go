package tui

import "github.com/berth-dev/recall/internal/search"

// resultsLoadedMsg carries the outcome of the initial search.
type resultsLoadedMsg struct {
	results []search.Result
	err     error
}
