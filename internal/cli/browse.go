// browse.go implements the "recall browse" command.
package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Browse matching sessions interactively",
	Long: `Open an interactive list of matching sessions. Use / to filter, tab to
switch agent, enter to open a session and q to quit.

Without a terminal the results are printed instead.`,
	Args: cobra.ArbitraryArgs,
	RunE: runBrowse,
}

func init() {
	addSearchFlags(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	opts, err := e.buildOptions(args)
	if err != nil {
		return err
	}

	fn := func(ctx context.Context) ([]search.Result, error) {
		return e.search(cmd, opts, "tui")
	}

	if !tui.IsTTY() {
		return tui.Fallback(cmd.Context(), cmd.OutOrStdout(), fn)
	}
	return tui.Run(tui.NewModel(strings.Join(args, " "), fn))
}
