// Package daemon provides the main orchestration for tokentrayd.
// It coordinates background quota refreshes, threshold alerts, desktop
// notifications and configuration hot-reload.
package daemon
