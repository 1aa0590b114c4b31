// recap.go implements the "recall recap" command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/history"
	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/report"
	"github.com/berth-dev/recall/internal/search"
)

var recapCmd = &cobra.Command{
	Use:   "recap <session-id>",
	Short: "Write an LLM handoff note for a session",
	Long: `Ask an OpenAI model to summarize a session into what was done, what is
still open, and what to do next.

The API key is read from the environment variable named by recap.api_key_env
(OPENAI_API_KEY by default). Recaps are cached in the history database per
session version; a session that has grown since gets a fresh recap.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecap,
}

var (
	recapJSON    bool
	recapRefresh bool
)

func init() {
	recapCmd.Flags().BoolVar(&recapJSON, "json", false, "Print the recap as JSON")
	recapCmd.Flags().BoolVar(&recapRefresh, "refresh", false, "Ignore any cached recap")
}

func runRecap(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	res, err := e.lookup(cmd, args[0])
	if err != nil {
		return err
	}

	// The cache is optional: without history every recap is generated.
	var store *history.Store
	if e.cfg.History.Enabled {
		if store, err = e.openHistory(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	var rc *recap.Recap
	if store != nil && !recapRefresh {
		rc = cachedRecap(store, res)
	}

	if rc == nil {
		r, err := e.newRecapper()
		if errors.Is(err, recap.ErrNoAPIKey) {
			return fmt.Errorf("%w: set %s", err, e.cfg.Recap.APIKeyEnv)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Generating recap with %s...\n", r.Model())
		rc, err = r.Recap(cmd.Context(), &res.Session)
		if err != nil {
			return fmt.Errorf("generating recap: %w", err)
		}

		e.logEvent(log.LogEvent{
			Event:     log.EventRecapGenerated,
			SessionID: res.ID,
			Model:     r.Model(),
			Source:    "cli",
		})

		if store != nil {
			body, err := json.Marshal(rc)
			if err == nil {
				err = store.SaveRecap(res.ID, res.EndedAt, r.Model(), string(body))
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: caching recap: %v\n", err)
			}
		}
	}

	if recapJSON {
		out, err := json.MarshalIndent(rc, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding recap: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), report.FormatRecap(res.ID, rc))
	return nil
}

// cachedRecap returns the stored recap for this version of the session, or
// nil on a miss or an unreadable entry.
func cachedRecap(store *history.Store, res *search.Result) *recap.Recap {
	stored, err := store.GetRecap(res.ID, res.EndedAt)
	if err != nil || stored == nil {
		return nil
	}
	var rc recap.Recap
	if err := recap.DecodeModelJSON(stored.Body, &rc); err != nil {
		return nil
	}
	return &rc
}
