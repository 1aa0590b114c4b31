// search.go implements "recall search" and the flags it shares with browse.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/report"
	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Rank past sessions against a query",
	Long: `Search every configured transcript directory and print the best matching
sessions. Words in the query are matched case-insensitively against user
requests, tool names and touched files.

With no query, every session passing the filters is listed, newest first.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

// searchFlags holds the filter flags shared by search and browse.
var searchFlags struct {
	days    int
	since   string
	until   string
	tools   []string
	file    string
	limit   int
	dialect string
}

var searchJSON bool

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&searchFlags.days, "days", 0, "Only sessions that ended within the last N days")
	f.StringVar(&searchFlags.since, "since", "", "Only sessions that ended on or after this date (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&searchFlags.until, "until", "", "Only sessions that ended on or before this date")
	f.StringSliceVar(&searchFlags.tools, "tool", nil, "Only sessions that used one of these tools (repeatable)")
	f.StringVar(&searchFlags.file, "file", "", "Only sessions that touched a file containing this text")
	f.IntVar(&searchFlags.limit, "limit", 0, "Maximum results (default from config)")
	f.StringVar(&searchFlags.dialect, "dialect", "", "Agent to search: all, claude or copilot (default from config)")
}

func init() {
	addSearchFlags(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
}

// buildOptions turns the positional query and the filter flags into
// search.Options, falling back to config for limit and dialect.
func (e *env) buildOptions(args []string) (search.Options, error) {
	opts := search.Options{
		Query:       strings.Join(args, " "),
		Days:        searchFlags.days,
		Tools:       searchFlags.tools,
		FilePattern: searchFlags.file,
		Limit:       searchFlags.limit,
	}
	if opts.Days < 0 {
		return opts, fmt.Errorf("--days must not be negative")
	}
	if opts.Limit <= 0 {
		opts.Limit = e.cfg.Search.Limit
	}

	var err error
	if opts.Since, err = search.ParseDate(searchFlags.since); err != nil {
		return opts, fmt.Errorf("--since: %w", err)
	}
	if opts.Until, err = search.ParseUntil(searchFlags.until); err != nil {
		return opts, fmt.Errorf("--until: %w", err)
	}

	dialect := searchFlags.dialect
	if dialect == "" {
		dialect = e.cfg.Search.Dialect
	}
	if opts.Dialect, err = search.ParseDialect(dialect); err != nil {
		return opts, err
	}
	return opts, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	opts, err := e.buildOptions(args)
	if err != nil {
		return err
	}

	progress := ui.NewScanProgress()
	e.searcher.Progress = progress.Update

	results, err := e.search(cmd, opts, "cli")
	progress.Finish()
	if err != nil {
		return err
	}

	if searchJSON {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), report.FormatResults(results))
	return nil
}

// search runs one logged search and records it in history when enabled.
// A history failure is reported but does not fail the search.
func (e *env) search(cmd *cobra.Command, opts search.Options, source string) ([]search.Result, error) {
	e.logEvent(log.LogEvent{
		Event:   log.EventSearchStarted,
		Query:   opts.Query,
		Dialect: string(opts.Dialect),
		Source:  source,
	})

	start := time.Now()
	results, err := e.searcher.Search(cmd.Context(), opts)
	if err != nil {
		e.logEvent(log.LogEvent{
			Event:      log.EventSearchComplete,
			Query:      opts.Query,
			Source:     source,
			Error:      err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var searchID string
	if e.cfg.History.Enabled {
		searchID = e.record(opts, results)
	}

	e.logEvent(log.LogEvent{
		Event:      log.EventSearchComplete,
		Query:      opts.Query,
		SearchID:   searchID,
		Dialect:    string(opts.Dialect),
		Results:    len(results),
		Source:     source,
		DurationMs: time.Since(start).Milliseconds(),
	})
	return results, nil
}

func (e *env) record(opts search.Options, results []search.Result) string {
	store, err := e.openHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return ""
	}
	defer store.Close()

	rec, err := store.RecordSearch(opts, results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recording search: %v\n", err)
		return ""
	}
	return rec.ID
}
