// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/tokentray/internal/helper"
)

// AppName is used for config, data and D-Bus names.
const AppName = "tokentray"

// Default configuration values.
const (
	DefaultExecutable      = "node"
	DefaultHideDelay       = 100 * time.Millisecond
	DefaultPopoverWidth    = 320
	DefaultMarginTop       = 8
	DefaultMarginRight     = 8
	DefaultRefreshInterval = 5 * time.Minute
	DefaultAlertInterval   = 15 * time.Minute
	DefaultVolume          = 80
	DefaultRetention       = 30 * 24 * time.Hour

	// MinRefreshInterval is the shortest non-zero refresh interval.
	MinRefreshInterval = 30 * time.Second
)

// Config represents the tokentray configuration.
type Config struct {
	Helper  HelperConfig  `toml:"helper"`
	Popover PopoverConfig `toml:"popover"`
	Tray    TrayConfig    `toml:"tray"`
	Refresh RefreshConfig `toml:"refresh"`
	Alerts  AlertsConfig  `toml:"alerts"`
	History HistoryConfig `toml:"history"`
}

// HelperConfig controls how the quota helper script is found and run.
type HelperConfig struct {
	Executable  string `toml:"executable"`   // Interpreter, empty = run the script directly
	Mode        string `toml:"mode"`         // "development" or "packaged"
	DevScript   string `toml:"dev_script"`   // Relative to the working directory in development mode
	ResourceDir string `toml:"resource_dir"` // Packaged mode, empty = <exe dir>/../share/tokentray
}

// PopoverConfig contains popover window settings.
type PopoverConfig struct {
	HideDelay   Duration `toml:"hide_delay"` // Focus-loss debounce, "0" hides immediately
	Width       int      `toml:"width"`
	MarginTop   int      `toml:"margin_top"`
	MarginRight int      `toml:"margin_right"`
}

// TrayConfig controls the tray icon.
type TrayConfig struct {
	ContextMenuQuit bool `toml:"context_menu_quit"` // Right click quits; otherwise it opens the popover
}

// RefreshConfig controls background quota refreshes.
type RefreshConfig struct {
	Interval Duration `toml:"interval"` // "0" disables periodic refresh
	OnShow   bool     `toml:"on_show"`  // Refresh whenever the popover opens
}

// AlertsConfig contains desktop notification settings.
type AlertsConfig struct {
	Enabled     bool     `toml:"enabled"`
	Sound       string   `toml:"sound"`  // Path to a wav/ogg/mp3 file, empty = silent
	Volume      int      `toml:"volume"` // 0-100
	MinInterval Duration `toml:"min_interval"`
}

// HistoryConfig controls the sample log.
type HistoryConfig struct {
	Enabled   bool     `toml:"enabled"`
	Retention Duration `toml:"retention"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Helper: HelperConfig{
			Executable: DefaultExecutable,
			Mode:       string(helper.ModePackaged),
			DevScript:  helper.DefaultDevScript,
		},
		Popover: PopoverConfig{
			HideDelay:   Duration(DefaultHideDelay),
			Width:       DefaultPopoverWidth,
			MarginTop:   DefaultMarginTop,
			MarginRight: DefaultMarginRight,
		},
		Refresh: RefreshConfig{
			Interval: Duration(DefaultRefreshInterval),
			OnShow:   true,
		},
		Alerts: AlertsConfig{
			Enabled:     true,
			Volume:      DefaultVolume,
			MinInterval: Duration(DefaultAlertInterval),
		},
		History: HistoryConfig{
			Enabled:   true,
			Retention: Duration(DefaultRetention),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName, "config.toml")
}

// StylePath returns the path to the optional CSS override, next to the config file.
func StylePath() string {
	path := ConfigPath()
	if path == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "style.css")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppName)
}

// HistoryPath returns the path to the history JSONL file.
func HistoryPath() string {
	return filepath.Join(DataPath(), "history.jsonl")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}

// Load loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(helper.ValidModes(), helper.Mode(c.Helper.Mode)) {
		return fmt.Errorf("invalid helper mode %q, must be one of: %v", c.Helper.Mode, helper.ValidModes())
	}
	if helper.Mode(c.Helper.Mode) == helper.ModeDevelopment && strings.TrimSpace(c.Helper.DevScript) == "" {
		return errors.New("dev_script must be set in development mode")
	}

	if c.Popover.HideDelay < 0 || c.Popover.HideDelay.Duration() > 5*time.Second {
		return fmt.Errorf("hide_delay must be between 0 and 5s, got %s", c.Popover.HideDelay.Duration())
	}
	if c.Popover.Width < 200 || c.Popover.Width > 1000 {
		return fmt.Errorf("width must be between 200 and 1000, got %d", c.Popover.Width)
	}
	if c.Popover.MarginTop < 0 || c.Popover.MarginRight < 0 {
		return errors.New("popover margins must not be negative")
	}

	if c.Refresh.Interval != 0 && c.Refresh.Interval.Duration() < MinRefreshInterval {
		return fmt.Errorf("refresh interval must be 0 or at least 30s, got %s", c.Refresh.Interval.Duration())
	}

	if c.Alerts.Volume < 0 || c.Alerts.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Alerts.Volume)
	}
	if c.Alerts.MinInterval < 0 {
		return errors.New("alerts min_interval must not be negative")
	}

	if c.History.Retention < 0 {
		return errors.New("history retention must not be negative")
	}

	return nil
}

// HelperMode returns the configured helper mode.
func (c *Config) HelperMode() helper.Mode {
	return helper.Mode(c.Helper.Mode)
}

// SoundPath returns the alert sound path with ~ expanded.
func (c *Config) SoundPath() string {
	return expandPath(c.Alerts.Sound)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Locator builds the helper script locator from the [helper] section.
func (c *Config) Locator() *helper.Locator {
	return helper.NewLocator(c.HelperMode(), expandPath(c.Helper.DevScript), expandPath(c.Helper.ResourceDir))
}
