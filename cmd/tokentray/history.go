package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tokentray/internal/adapter/output"
	"github.com/jmylchreest/tokentray/internal/config"
	"github.com/jmylchreest/tokentray/internal/core"
	"github.com/jmylchreest/tokentray/internal/store"
)

var historyOpts struct {
	since  string
	format string
	follow bool
	min    string
	window string
	sortBy string
	order  string
	limit  int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recorded quota samples",
	Long: `Print the quota samples recorded by tokentrayd.

Examples:
  # Samples from the last day
  tokentray history

  # The last week as JSON
  tokentray history --since 7d --format json

  # The ten busiest moments of the week by weekly utilization
  tokentray history --since 7d --window 7d --sort peak --order desc --limit 10

  # Only samples at or above 90% on either window
  tokentray history --min 90

  # Keep printing new samples as the daemon records them
  tokentray history --follow`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyOpts.since, "since", "24h",
		"Only show samples from the last duration (e.g., 90m, 24h, 7d; 0 for all)")
	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
	historyCmd.Flags().BoolVar(&historyOpts.follow, "follow", false,
		"Print new samples as they are recorded (plain format)")
	historyCmd.Flags().StringVar(&historyOpts.min, "min", "",
		"Only show samples at or above this utilization (e.g., 80 or 80%)")
	historyCmd.Flags().StringVar(&historyOpts.window, "window", "",
		"Window --min applies to (5h, 7d; default: the higher of both)")
	historyCmd.Flags().StringVar(&historyOpts.sortBy, "sort", "timestamp",
		"Sort field (timestamp, 5h, 7d, peak)")
	historyCmd.Flags().StringVar(&historyOpts.order, "order", "asc",
		"Sort order (asc, desc)")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Show at most this many of the newest matching samples (0 for all)")
}

// historyFilter builds the filter and sort options from the command flags.
func historyFilter(cutoff time.Time) (core.FilterOptions, core.SortOptions, error) {
	var sortOpts core.SortOptions

	minPeak, err := core.ParsePercent(historyOpts.min)
	if err != nil {
		return core.FilterOptions{}, sortOpts, fmt.Errorf("invalid --min: %w", err)
	}
	window, err := core.ParseWindow(historyOpts.window)
	if err != nil {
		return core.FilterOptions{}, sortOpts, fmt.Errorf("invalid --window: %w", err)
	}
	if historyOpts.limit < 0 {
		return core.FilterOptions{}, sortOpts, fmt.Errorf("invalid --limit: must not be negative")
	}

	if sortOpts.Field, err = core.ParseSortField(historyOpts.sortBy); err != nil {
		return core.FilterOptions{}, sortOpts, fmt.Errorf("invalid --sort: %w", err)
	}
	if sortOpts.Order, err = core.ParseSortOrder(historyOpts.order); err != nil {
		return core.FilterOptions{}, sortOpts, fmt.Errorf("invalid --order: %w", err)
	}

	return core.FilterOptions{
		Since:   cutoff,
		MinPeak: minPeak,
		Window:  window,
		Limit:   historyOpts.limit,
	}, sortOpts, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	since, err := config.ParseDuration(historyOpts.since)
	if err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}
	var cutoff time.Time
	if since > 0 {
		cutoff = time.Now().Add(-since)
	}

	filter, sortOpts, err := historyFilter(cutoff)
	if err != nil {
		return err
	}

	format := output.FormatType(historyOpts.format)
	if historyOpts.follow {
		format = output.FormatPlain
	}

	path := config.HistoryPath()
	all, err := readSince(path, cutoff)
	if err != nil {
		return err
	}
	samples := core.Filter(all, filter)
	core.Sort(samples, sortOpts)

	opts := output.DefaultFormatterOptions()
	if err := output.FormatSamples(os.Stdout, format, samples, opts); err != nil {
		return err
	}
	if !historyOpts.follow {
		return nil
	}

	filter.Since = time.Time{}
	filter.Limit = 0
	return followHistory(path, filter, opts)
}

// readSince returns the samples in path recorded at or after cutoff.
func readSince(path string, cutoff time.Time) ([]store.Sample, error) {
	all, err := store.ReadFile(path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return core.Filter(all, core.FilterOptions{Since: cutoff}), nil
}

// followHistory prints samples appended to path that match filter, until
// interrupted.
func followHistory(path string, filter core.FilterOptions, opts output.FormatterOptions) error {
	follower, err := store.NewFollower(path, logger)
	if err != nil {
		return fmt.Errorf("failed to watch history: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var writeErr error
	err = follower.Run(ctx, func(fresh []store.Sample) {
		samples := core.Filter(fresh, filter)
		if len(samples) == 0 || writeErr != nil {
			return
		}
		if writeErr = output.FormatSamples(os.Stdout, output.FormatPlain, samples, opts); writeErr != nil {
			stop()
		}
	})
	if writeErr != nil {
		return writeErr
	}
	return err
}
