package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/cmd/chronicle/commands"
	"github.com/teranos/chronicle/display"
	"github.com/teranos/chronicle/logger"
)

var rootCmd = &cobra.Command{
	Use:   "chronicle",
	Short: "chronicle - Timelines from Wikidata",
	Long: `chronicle - Build vis.js timelines from Wikidata.

A timeline spec lists items and item templates. chronicle expands the
templates with SPARQL, fetches every item's dates in bundled queries,
resolves uncertain and open-ended ranges, and writes a vis.js document.

Available commands:
  fetch   - Build a timeline from a spec
  cache   - Inspect or clear the query cache
  am      - Manage chronicle configuration ("I am")
  version - Show version information

Examples:
  chronicle fetch spec.json                 # Write intermediate/timeline.json
  chronicle fetch spec.yaml out.json -v     # Custom output, progress logging
  chronicle fetch spec.json --watch         # Rebuild whenever the spec changes
  chronicle cache stats                     # Show cache size`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")

		// Skip config-driven log settings for commands that print the config itself
		if cmd.Name() != "show" {
			if cfg, err := am.Load(); err == nil {
				jsonLogs = jsonLogs || cfg.Log.JSON
				if cfg.Log.Theme != "" {
					logger.SetTheme(cfg.Log.Theme)
				}
			}
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("json", false, "Print command output as JSON")

	rootCmd.AddCommand(commands.FetchCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		if cmd == nil {
			cmd = rootCmd
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		display.Error(os.Stderr, err, verbosity >= logger.VerbosityDebug)
		logger.Cleanup()
		os.Exit(1)
	}
}
