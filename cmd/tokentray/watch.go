package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tokentray/internal/config"
	"github.com/jmylchreest/tokentray/internal/tui"
)

var watchOpts struct {
	interval string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live quota view in the terminal",
	Long: `Show the usage quota in a live terminal view that refreshes periodically.

Key bindings:
  r           Refresh now
  c           Copy the raw JSON document to the clipboard
  ?           Show help
  q           Quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.interval, "interval", "i", "1m",
		"Refresh interval (e.g., 30s, 5m; 0 disables)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, err := config.ParseDuration(watchOpts.interval)
	if err != nil {
		return fmt.Errorf("invalid --interval: %w", err)
	}
	if interval > 0 && interval < config.MinRefreshInterval {
		return fmt.Errorf("invalid --interval: must be 0 or at least %s", config.MinRefreshInterval)
	}
	return tui.Run(newFetcher(), interval)
}
