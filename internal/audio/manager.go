package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/tokentray/internal/config"
)

// Manager plays the configured alert sound and follows config reloads.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	enabled bool
	path    string
}

// NewManager creates a manager for the [alerts] config section.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger: logger,
		player: NewPlayer(logger),
	}
	m.UpdateConfig(cfg)
	return m
}

// UpdateConfig applies a new configuration. It is called on hot reload.
// A sound that cannot be decoded disables the sound until the next reload.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	path := cfg.SoundPath()
	enabled := cfg.Alerts.Enabled && path != ""

	m.mu.RLock()
	changed := m.path != path
	m.mu.RUnlock()

	m.player.SetVolume(float64(cfg.Alerts.Volume) / 100.0)
	if changed {
		m.player.ClearCache()
	}
	if enabled {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("alert sound unavailable", "path", path, "error", err)
			enabled = false
		}
	}

	m.mu.Lock()
	m.enabled = enabled
	m.path = path
	m.mu.Unlock()

	m.logger.Debug("alert sound configured", "enabled", enabled, "path", path, "volume", cfg.Alerts.Volume)
}

// Enabled reports whether an alert sound will be played.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// PlayAlert plays the alert sound, if one is configured.
func (m *Manager) PlayAlert() error {
	m.mu.RLock()
	enabled, path := m.enabled, m.path
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	return m.player.Play(path)
}

// Close releases the audio device.
func (m *Manager) Close() {
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}
