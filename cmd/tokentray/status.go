package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tokentray/internal/adapter/output"
	"github.com/jmylchreest/tokentray/internal/quota"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the usage quota in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/tokentray": {
    "exec": "tokentray status",
    "interval": 300,
    "return-type": "json",
    "format": "{percentage}% {icon}",
    "on-click": "tokentray watch"
  }

The output includes:
  - text: Peak utilization across the 5-hour and 7-day windows
  - alt, class: Level (healthy, moderate, critical, locked, error)
  - tooltip: Per-window utilization and reset countdowns
  - percentage: Peak utilization, 0-100

A failed fetch still prints a status line, with class "error".`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	res, err := newFetcher().Fetch(ctx)
	if err != nil {
		logger.Debug("quota fetch failed", "kind", quota.KindOf(err).String(), "error", err)
		return output.WriteWaybar(os.Stdout, output.WaybarError(err))
	}

	f := output.NewWaybarFormatter(output.DefaultFormatterOptions())
	return f.Format(os.Stdout, res)
}
