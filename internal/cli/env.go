// env.go loads configuration and builds the shared searcher, logger and
// history store used by every command.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/berth-dev/recall/internal/config"
	"github.com/berth-dev/recall/internal/history"
	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/search"
)

// errHistoryDisabled is returned by commands that need the history database
// when history.enabled is false.
var errHistoryDisabled = errors.New("search history is disabled (history.enabled: false)")

type env struct {
	cfg      *config.Config
	searcher *search.Searcher
	logger   *log.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Logging is best-effort; a read-only data dir still allows searching.
	logger, err := log.NewLogger(cfg.DataDir)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: event log disabled: %v\n", err)
		}
		logger = nil
	}

	return &env{
		cfg:      cfg,
		searcher: search.NewSearcher(cfg.SearchSources(), cfg.Search.Workers),
		logger:   logger,
	}, nil
}

// openHistory opens the history database. Callers must Close it.
func (e *env) openHistory() (*history.Store, error) {
	if !e.cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	if err := os.MkdirAll(e.cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := history.NewStore(e.cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

// newRecapper returns recap.ErrNoAPIKey when the configured key variable is unset.
func (e *env) newRecapper() (*recap.Recapper, error) {
	return recap.New(recap.Options{
		APIKey:      recap.APIKeyFromEnv(e.cfg.Recap.APIKeyEnv),
		Model:       e.cfg.Recap.Model,
		MaxMessages: e.cfg.Recap.MaxMessages,
	})
}

func (e *env) logEvent(ev log.LogEvent) {
	if err := e.logger.Append(ev); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: writing event log: %v\n", err)
	}
}
