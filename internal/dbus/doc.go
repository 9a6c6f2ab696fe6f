// Package dbus holds tokentray's session bus integrations.
//
// Item exports an org.kde.StatusNotifierItem so the tray icon shows up in
// any StatusNotifierHost (waybar, KDE, GNOME with the AppIndicator
// extension) and turns host clicks into activation callbacks.
//
// Notifier is a thin client for org.freedesktop.Notifications used to raise
// quota alerts.
package dbus
