package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tokentray/internal/adapter/output"
)

// fetchTimeout bounds a single helper run from the CLI.
const fetchTimeout = 60 * time.Second

var quotaOpts struct {
	format string
	color  string
}

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Fetch and print the usage quota",
	Long: `Run the quota helper once and print its result.

The json format prints the helper's document verbatim (pretty-printed);
plain renders progress bars with reset countdowns.

Exits with status 1 when the helper cannot be found, cannot be started,
fails, or prints something that is not JSON.

Examples:
  tokentray quota
  tokentray quota --format plain
  tokentray quota --format yaml`,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)

	for _, cmd := range []*cobra.Command{rootCmd, quotaCmd} {
		cmd.Flags().StringVarP(&quotaOpts.format, "format", "f", "json",
			"Output format ("+formatNames()+")")
		cmd.Flags().StringVar(&quotaOpts.color, "color", "auto",
			"Colour plain output (auto, always, never)")
	}
}

func runQuota(cmd *cobra.Command, args []string) error {
	opts := output.DefaultFormatterOptions()
	opts.Color = useColor(quotaOpts.color)

	formatter, err := output.NewFormatter(output.FormatType(quotaOpts.format), opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
	defer cancel()

	res, err := newFetcher().Fetch(ctx)
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, res)
}

func formatNames() string {
	var names []string
	for _, f := range output.ValidFormats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == ""
	}
}
