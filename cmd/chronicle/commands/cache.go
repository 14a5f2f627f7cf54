package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/cache"
	"github.com/teranos/chronicle/display"
	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/logger"
	"github.com/teranos/chronicle/sym"
)

// CacheCmd represents the cache command
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: sym.DB + " Inspect or clear the query cache",
	Long: sym.DB + ` cache: Inspect or clear the query cache

Every answered query is stored under its canonical text in the configured
backend (cache.backend, cache.path) and reused by later runs.

Examples:
  chronicle cache stats            # Backend, location and entry count
  chronicle cache stats --json     # Same, as JSON
  chronicle cache clear            # Forget every stored answer`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached answer",
	RunE:  runCacheClear,
}

func init() {
	CacheCmd.AddCommand(cacheStatsCmd)
	CacheCmd.AddCommand(cacheClearCmd)
}

// CacheStats describes the configured store
type CacheStats struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
	Entries int    `json:"entries"`
}

func openConfiguredStore() (cache.Store, *am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	store, err := cache.OpenBackend(cfg.Cache.Backend, cfg.Cache.Path, logger.AddDBSymbol(logger.Logger.Named("cache")))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s cache", cfg.Cache.Backend)
	}
	return store, cfg, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, cfg, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats := CacheStats{Backend: cfg.Cache.Backend, Entries: store.Len()}
	if cfg.Cache.Backend != am.CacheBackendMemory {
		stats.Path = cfg.Cache.Path
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), stats)
	}
	return pterm.DefaultTable.WithWriter(cmd.OutOrStdout()).WithData(pterm.TableData{
		{"backend", stats.Backend},
		{"path", stats.Path},
		{"entries", fmt.Sprint(stats.Entries)},
	}).Render()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, cfg, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n := store.Len()
	if err := store.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear cache")
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Removed %d entries from the %s cache", n, cfg.Cache.Backend)
	return nil
}
