// init.go implements the "recall init" command.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/recall/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write ~/.recall/config.yaml with the default transcript directories and
settings. Use --project to write ./.recall/config.yaml instead, which
overrides the global file for this directory.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	projectFlag bool
	forceFlag   bool
)

func init() {
	initCmd.Flags().BoolVar(&projectFlag, "project", false, "Write the project config instead of the global one")
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.GlobalConfigPath()
	if projectFlag {
		path = config.ProjectConfigPath()
	}
	if path == "" {
		return fmt.Errorf("cannot determine config location")
	}

	out := cmd.OutOrStdout()

	// Check for an existing config.
	if _, statErr := os.Stat(path); statErr == nil && !forceFlag {
		fmt.Fprintf(out, "Warning: %s already exists.\n", path)
		fmt.Fprint(out, "Overwrite? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := config.WriteConfig(path, config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	fmt.Fprintln(out, "Next: recall search <words from a past request>")
	return nil
}
