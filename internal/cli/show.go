// show.go implements the "recall show" command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/report"
	"github.com/berth-dev/recall/internal/search"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show where a session left off",
	Long: `Print the summary of one session: where it ran, what was asked first,
the last few requests, and the tools, files and models involved.

The id may be any unique prefix of the full session id.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var (
	showJSON bool
	showOut  string
)

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the session as JSON")
	showCmd.Flags().StringVar(&showOut, "out", "", "Also write the summary to this file")
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	res, err := e.lookup(cmd, args[0])
	if err != nil {
		return err
	}

	e.logEvent(log.LogEvent{
		Event:     log.EventSessionShown,
		SessionID: res.ID,
		Dialect:   string(res.Dialect),
		Source:    "cli",
	})

	var content string
	if showJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}
		content = string(out) + "\n"
	} else {
		content = report.FormatSession(res)
	}

	fmt.Fprint(cmd.OutOrStdout(), content)

	if showOut != "" {
		if err := report.WriteReport(showOut, content); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", showOut)
	}
	return nil
}

// lookup resolves a session id or prefix, turning lookup errors into
// messages that say what to do next.
func (e *env) lookup(cmd *cobra.Command, id string) (*search.Result, error) {
	res, err := e.searcher.Lookup(cmd.Context(), id)
	if err == nil {
		return res, nil
	}

	var amb *search.AmbiguousError
	switch {
	case errors.Is(err, search.ErrNotFound):
		return nil, fmt.Errorf("no session matches %q; find ids with: recall search", id)
	case errors.As(err, &amb):
		return nil, fmt.Errorf("%w; use a longer prefix", err)
	default:
		return nil, fmt.Errorf("looking up session: %w", err)
	}
}
