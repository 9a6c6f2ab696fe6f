package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsBusName   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// Caller abstracts the D-Bus method call so Notifier can be tested without a bus.
type Caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Notifier sends desktop notifications through the session notification daemon.
type Notifier struct {
	logger *slog.Logger

	mu  sync.Mutex
	obj Caller
}

// NewNotifier creates a notifier. The bus is connected lazily on first use.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// NewNotifierWithCaller creates a notifier using an existing bus object.
func NewNotifierWithCaller(obj Caller, logger *slog.Logger) *Notifier {
	n := NewNotifier(logger)
	n.obj = obj
	return n
}

func (n *Notifier) object() (Caller, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.obj != nil {
		return n.obj, nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	n.obj = conn.Object(notificationsBusName, notificationsPath)
	return n.obj, nil
}

// Notify shows a notification and returns the server-assigned ID.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (n *Notifier) Notify(ctx context.Context, notif *Notification) (uint32, error) {
	obj, err := n.object()
	if err != nil {
		return 0, err
	}

	call := obj.CallWithContext(ctx, notificationsInterface+".Notify", 0,
		appID,
		notif.ReplacesID,
		notif.Icon,
		notif.Summary,
		notif.Body,
		[]string{},
		notif.Hints(),
		notif.ExpireTimeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}

	n.logger.Debug("notification sent", "id", id, "summary", notif.Summary, "urgency", notif.Urgency)
	return id, nil
}

// Close closes a notification previously returned by Notify.
// D-Bus method: CloseNotification(u)
func (n *Notifier) Close(ctx context.Context, id uint32) error {
	obj, err := n.object()
	if err != nil {
		return err
	}
	if call := obj.CallWithContext(ctx, notificationsInterface+".CloseNotification", 0, id); call.Err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, call.Err)
	}
	return nil
}
