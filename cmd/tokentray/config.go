package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/tokentray/internal/config"
	"github.com/jmylchreest/tokentray/internal/theme"
)

var configInitOpts struct {
	force bool
}

var configStyleOpts struct {
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(configPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the default configuration to the configuration file path.

An existing file is left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configStyleCmd = &cobra.Command{
	Use:   "style",
	Short: "Write the default popover stylesheet for editing",
	Long: `Write the bundled popover stylesheet to style.css next to the
configuration file, together with the partials it imports.

tokentrayd uses style.css instead of the bundled theme when it exists and
reloads it while running.`,
	Args: cobra.NoArgs,
	RunE: runConfigStyle,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configStyleCmd)

	configInitCmd.Flags().BoolVar(&configInitOpts.force, "force", false,
		"Overwrite an existing configuration file")
	configStyleCmd.Flags().BoolVar(&configStyleOpts.force, "force", false,
		"Overwrite existing stylesheet files")

	// An invalid file must not stop the user from locating or replacing it.
	configCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		setupLogger()
		return nil
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !configInitOpts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}

func runConfigStyle(cmd *cobra.Command, args []string) error {
	stylePath := config.StylePath()
	if stylePath == "" {
		return fmt.Errorf("cannot determine the configuration directory")
	}
	written, err := theme.ExportDefault(filepath.Dir(stylePath), filepath.Base(stylePath), configStyleOpts.force)
	if err != nil {
		return err
	}
	sort.Strings(written)
	for _, p := range written {
		fmt.Println("Wrote", p)
	}
	return nil
}
