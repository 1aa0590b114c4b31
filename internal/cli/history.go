// history.go implements "recall history" for reviewing past searches.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent searches",
	Long: `List recent searches recorded in the history database, newest first,
followed by a summary of recall activity from the event log.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <search-id>",
	Short: "Show the ranked results of a past search",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of searches to list")
	historyCmd.AddCommand(historyShowCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	store, err := e.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	searches, err := store.ListSearches(historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(searches) == 0 {
		fmt.Fprintln(out, "No searches recorded yet.")
	} else {
		fmt.Fprintf(out, "%-36s  %-16s  %7s  %s\n", "ID", "WHEN", "RESULTS", "QUERY")
		for _, s := range searches {
			query := s.Query
			if query == "" {
				query = "(all sessions)"
			}
			fmt.Fprintf(out, "%-36s  %-16s  %7d  %s\n",
				s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.ResultCount, report.Snippet(query, 60))
		}
	}

	// Activity footer is best-effort.
	events, err := e.logger.ReadAll()
	if err != nil || len(events) == 0 {
		return nil
	}
	events = log.Filter(events, log.EventSearchComplete, log.EventSessionShown, log.EventRecapGenerated)
	fmt.Fprintln(out)
	fmt.Fprint(out, report.FormatActivity(report.SummarizeActivity(events)))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	store, err := e.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := store.GetSearch(args[0])
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("search %s not found; list searches with: recall history", args[0])
	}

	rows, err := store.GetResults(s.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Search:  %s\n", s.ID)
	fmt.Fprintf(out, "When:    %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Query:   %q\n", s.Query)
	if s.Options.Dialect != "" {
		fmt.Fprintf(out, "Dialect: %s\n", s.Options.Dialect)
	}
	fmt.Fprintln(out)

	if len(rows) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%2d. %s  [%s]  score %d\n    %s\n", r.Rank, r.SessionID, r.Dialect, r.Score, r.Path)
	}
	return nil
}
