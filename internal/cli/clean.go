// clean.go implements the "recall clean" command for pruning search history
// and the event log.
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/cleanup"
	"github.com/berth-dev/recall/internal/log"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old search history and log events",
	Long: `Remove recorded searches, cached recaps and event log entries.

By default, removes entries older than the configured history.max_age_days
(default 90). Use --older-than to pick a different age.
Use --keep-events to keep only the N most recent log events instead.
Use --dry-run to preview what would be removed.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var (
	olderThanFlag  int
	keepEventsFlag int
	dryRunFlag     bool
)

func init() {
	cleanCmd.Flags().IntVar(&olderThanFlag, "older-than", 0, "Remove entries older than N days (0 = use config)")
	cleanCmd.Flags().IntVar(&keepEventsFlag, "keep-events", 0, "Keep only the last N log events (0 = age-based)")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview what would be removed without deleting")
}

func runClean(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	maxAge := olderThanFlag
	if maxAge <= 0 {
		maxAge = e.cfg.History.MaxAgeDays
	}
	if maxAge <= 0 {
		maxAge = 90
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAge)

	verb := "Removed"
	if dryRunFlag {
		verb = "Would remove"
	}
	out := cmd.OutOrStdout()

	searches, err := e.pruneHistory(maxAge)
	switch {
	case errors.Is(err, errHistoryDisabled):
	case err != nil:
		return fmt.Errorf("cleanup failed: %w", err)
	default:
		fmt.Fprintf(out, "%s %d search(es) older than %d days.\n", verb, searches, maxAge)
	}

	var events int
	if path := e.logger.Path(); path != "" {
		if keepEventsFlag > 0 {
			events, err = cleanup.PruneKeepRecent(path, keepEventsFlag, dryRunFlag)
		} else {
			events, err = cleanup.PruneLog(path, cutoff, dryRunFlag)
		}
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Fprintf(out, "%s %d log event(s).\n", verb, events)
	}

	if !dryRunFlag && (searches > 0 || events > 0) {
		e.logEvent(log.LogEvent{
			Event:  log.EventHistoryPruned,
			Pruned: searches,
			Source: "cli",
			Data:   map[string]interface{}{"events": events},
		})
	}
	return nil
}

// pruneHistory removes (or counts, on a dry run) searches older than maxAge days.
func (e *env) pruneHistory(maxAge int) (int64, error) {
	store, err := e.openHistory()
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if dryRunFlag {
		return store.CountBefore(store.Cutoff(maxAge))
	}
	return store.PruneOlderThan(maxAge)
}
