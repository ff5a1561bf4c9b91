// Package cli wires the rosterfeed commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/rosterfeed/internal/config"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// cfg is the effective configuration, resolved in PersistentPreRunE.
var cfg *config.Config //nolint:gochecknoglobals // Set once per invocation before any RunE

// NewRootCmd creates the root Cobra command for the rosterfeed CLI. It wires
// configuration loading, logging, and the browse subcommand.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rosterfeed",
		Short:   "Incremental roster browser",
		Long:    "rosterfeed: browse a large paginated roster with client-side search and sort",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded

			setupLogging(cmd)
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (YAML)")
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newDumpCmd())

	return cmd
}

const rootCmdExample = `  # Browse the synthesized roster interactively
  rosterfeed browse

  # Smaller dataset with faster fetches
  rosterfeed browse --total 500 --fetch-delay 100ms

  # Debug logging to a file
  rosterfeed --debug browse

  # One page of the roster as JSON, sorted by name
  rosterfeed dump --page 3 --sort name:asc --format json`
