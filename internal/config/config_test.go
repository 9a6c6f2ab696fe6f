package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tokentray/internal/helper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "node", cfg.Helper.Executable)
	assert.Equal(t, "packaged", cfg.Helper.Mode)
	assert.Equal(t, "dist/lib.js", cfg.Helper.DevScript)
	assert.Equal(t, 100*time.Millisecond, cfg.Popover.HideDelay.Duration())
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval.Duration())
	assert.True(t, cfg.Refresh.OnShow)
	assert.True(t, cfg.Alerts.Enabled)
	assert.Equal(t, 80, cfg.Alerts.Volume)
	assert.True(t, cfg.History.Enabled)
	assert.False(t, cfg.Tray.ContextMenuQuit, "right click must not quit unless asked")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TrayContextMenuQuit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tray]\ncontext_menu_quit = true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Tray.ContextMenuQuit)
	assert.Equal(t, DefaultHideDelay, cfg.Popover.HideDelay.Duration())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[helper]
executable = ""
mode = "development"
dev_script = "scripts/quota.sh"

[popover]
hide_delay = "250ms"
width = 400

[refresh]
interval = "2m"
on_show = false

[alerts]
enabled = false
sound = "~/sounds/ding.ogg"
volume = 40
min_interval = "60000"

[history]
retention = "7d"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Helper.Executable)
	assert.Equal(t, helper.ModeDevelopment, cfg.HelperMode())
	assert.Equal(t, "scripts/quota.sh", cfg.Helper.DevScript)
	assert.Equal(t, 250*time.Millisecond, cfg.Popover.HideDelay.Duration())
	assert.Equal(t, 400, cfg.Popover.Width)
	assert.Equal(t, DefaultMarginTop, cfg.Popover.MarginTop, "unset keys keep defaults")
	assert.Equal(t, 2*time.Minute, cfg.Refresh.Interval.Duration())
	assert.False(t, cfg.Refresh.OnShow)
	assert.False(t, cfg.Alerts.Enabled)
	assert.Equal(t, 40, cfg.Alerts.Volume)
	assert.Equal(t, time.Minute, cfg.Alerts.MinInterval.Duration())
	assert.Equal(t, 7*24*time.Hour, cfg.History.Retention.Duration())
	assert.True(t, cfg.History.Enabled)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[popover\nwidth = "), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown mode", "[helper]\nmode = \"bundled\""},
		{"bad duration", "[popover]\nhide_delay = \"soon\""},
		{"negative delay", "[popover]\nhide_delay = \"-1s\""},
		{"narrow", "[popover]\nwidth = 50"},
		{"refresh too fast", "[refresh]\ninterval = \"1s\""},
		{"volume", "[alerts]\nvolume = 101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate_ZeroDelayAndInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Popover.HideDelay = 0
	cfg.Refresh.Interval = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Popover.HideDelay = Duration(300 * time.Millisecond)
	cfg.Alerts.Sound = "/usr/share/sounds/alert.wav"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"100ms", 100 * time.Millisecond},
		{"1h30m", 90 * time.Minute},
		{"250", 250 * time.Millisecond},
		{"0", 0},
		{"2d", 48 * time.Hour},
	}
	for _, tt := range tests {
		var d Duration
		require.NoError(t, d.UnmarshalText([]byte(tt.in)), tt.in)
		assert.Equal(t, tt.want, d.Duration(), tt.in)
	}

	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("later")))
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	_, err = ParseDuration("soon")
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	assert.Equal(t, "/tmp/cfg/tokentray/config.toml", ConfigPath())
	assert.Equal(t, "/tmp/cfg/tokentray/style.css", StylePath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/test")
	assert.Equal(t, "/home/test/.config/tokentray/config.toml", ConfigPath())
}

func TestDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, "/tmp/data/tokentray", DataPath())
	assert.Equal(t, "/tmp/data/tokentray/history.jsonl", HistoryPath())
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	require.NoError(t, EnsureDataDir())
	info, err := os.Stat(filepath.Join(dir, "tokentray"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSoundPathExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	cfg := DefaultConfig()
	cfg.Alerts.Sound = "~/ding.wav"
	assert.Equal(t, "/home/test/ding.wav", cfg.SoundPath())
}

func TestLocatorFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Helper.Mode = "development"
	cfg.Helper.DevScript = "/opt/helper/lib.js"

	loc := cfg.Locator()
	assert.Equal(t, helper.ModeDevelopment, loc.Mode)
	assert.Equal(t, "/opt/helper/lib.js", loc.DevScript)
}
