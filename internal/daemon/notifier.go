package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/tokentray/internal/dbus"
)

// Sender delivers a desktop notification. Implemented by dbus.Notifier.
type Sender interface {
	Notify(ctx context.Context, n *dbus.Notification) (uint32, error)
}

// SoundPlayer plays the alert sound. Implemented by audio.Manager.
type SoundPlayer interface {
	Enabled() bool
	PlayAlert() error
}

// DesktopNotifier sends quota alerts and internal daemon messages as
// desktop notifications. Repeats of the same key are rate limited.
type DesktopNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender Sender
	sound  SoundPlayer

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration

	// Notification ids per window, so a newer alert replaces the older one
	replaceIDs map[string]uint32

	enabled bool
	now     func() time.Time
}

// NewDesktopNotifier creates a notifier. sound may be nil.
func NewDesktopNotifier(sender Sender, sound SoundPlayer, logger *slog.Logger) *DesktopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesktopNotifier{
		logger:         logger,
		sender:         sender,
		sound:          sound,
		lastNotifyTime: make(map[string]time.Time),
		replaceIDs:     make(map[string]uint32),
		minInterval:    15 * time.Minute,
		enabled:        true,
		now:            time.Now,
	}
}

// SetEnabled enables or disables notifications.
func (n *DesktopNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications with the same key.
func (n *DesktopNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// SendAlert delivers a quota alert. It returns false when the alert was
// suppressed (disabled or rate limited) or delivery failed.
func (n *DesktopNotifier) SendAlert(ctx context.Context, a Alert) bool {
	urgency := dbus.UrgencyNormal
	icon := "dialog-warning"
	switch {
	case a.Restored:
		urgency = dbus.UrgencyLow
		icon = "dialog-information"
	case a.Threshold == ThresholdLocked:
		urgency = dbus.UrgencyCritical
		icon = "dialog-error"
	}

	n.mu.Lock()
	replaces := n.replaceIDs[a.Window]
	n.mu.Unlock()

	playSound := n.sound != nil && n.sound.Enabled() && !a.Restored
	notif := &dbus.Notification{
		ReplacesID:    replaces,
		Icon:          icon,
		Summary:       a.Summary,
		Body:          a.Body,
		Urgency:       urgency,
		Category:      "presence",
		SuppressSound: playSound,
		ExpireTimeout: -1,
	}

	id, ok := n.send(ctx, a.Key, notif)
	if !ok {
		return false
	}

	n.mu.Lock()
	n.replaceIDs[a.Window] = id
	n.mu.Unlock()

	if playSound {
		if err := n.sound.PlayAlert(); err != nil {
			n.logger.Warn("failed to play alert sound", "error", err)
		}
	}
	return true
}

// NotifyConfigError reports a rejected config reload.
func (n *DesktopNotifier) NotifyConfigError(ctx context.Context, err error) {
	n.send(ctx, "config-error", &dbus.Notification{
		Icon:          "dialog-warning",
		Summary:       "Configuration Error",
		Body:          "Failed to reload configuration: " + err.Error(),
		Urgency:       dbus.UrgencyNormal,
		Category:      "device",
		Transient:     true,
		ExpireTimeout: 5000,
	})
}

// NotifyConfigReloaded reports a successful config reload.
func (n *DesktopNotifier) NotifyConfigReloaded(ctx context.Context) {
	n.send(ctx, "config-reload", &dbus.Notification{
		Icon:          "dialog-information",
		Summary:       "Configuration Reloaded",
		Body:          "tokentray configuration has been reloaded.",
		Urgency:       dbus.UrgencyLow,
		Category:      "device",
		Transient:     true,
		ExpireTimeout: 5000,
	})
}

func (n *DesktopNotifier) send(ctx context.Context, key string, notif *dbus.Notification) (uint32, bool) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return 0, false
	}
	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("notification rate-limited", "key", key)
		return 0, false
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending notification", "key", key, "summary", notif.Summary, "urgency", notif.Urgency.String())

	id, err := n.sender.Notify(ctx, notif)
	if err != nil {
		n.logger.Warn("failed to send notification", "key", key, "error", err)
		n.mu.Lock()
		delete(n.lastNotifyTime, key)
		n.mu.Unlock()
		return 0, false
	}
	return id, true
}
