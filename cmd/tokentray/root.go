// Package main provides the CLI entrypoint for tokentray.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tokentray/internal/config"
	"github.com/jmylchreest/tokentray/internal/helper"
	"github.com/jmylchreest/tokentray/internal/quota"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tokentray",
	Short: "Usage quota for the tray, the terminal and Waybar",
	Long: `tokentray reads your usage quota through the quota helper script and
shows it in the terminal or as a Waybar module.

The tray icon and popover are provided by the tokentrayd daemon.

Running tokentray without a subcommand prints the quota once.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.Load(configPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuota(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/tokentray/config.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func configPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

// newFetcher builds a quota fetcher from the loaded config.
func newFetcher() *quota.Fetcher {
	return quota.NewFetcher(helper.NewExecInvoker(logger), cfg.Locator(), cfg.Helper.Executable, logger)
}

// describeError prefixes quota failures with their kind.
func describeError(err error) string {
	if kind := quota.KindOf(err); kind != 0 {
		return fmt.Sprintf("%s: %v", kind, err)
	}
	return err.Error()
}
