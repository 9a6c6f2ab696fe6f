// Package main is the entry point for the tokentrayd tray daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/tokentray/internal/adapter/output"
	"github.com/jmylchreest/tokentray/internal/audio"
	"github.com/jmylchreest/tokentray/internal/config"
	"github.com/jmylchreest/tokentray/internal/daemon"
	"github.com/jmylchreest/tokentray/internal/dbus"
	"github.com/jmylchreest/tokentray/internal/helper"
	"github.com/jmylchreest/tokentray/internal/popover"
	"github.com/jmylchreest/tokentray/internal/quota"
	"github.com/jmylchreest/tokentray/internal/store"
	"github.com/jmylchreest/tokentray/internal/theme"
	"github.com/jmylchreest/tokentray/internal/visibility"
)

const (
	appID   = "io.github.jmylchreest.tokentray"
	appName = "tokentrayd"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/tokentray/config.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println(appName, "version", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	os.Exit(run(path, logger))
}

func run(configPath string, logger *slog.Logger) int {
	logger.Info("starting tokentrayd", "version", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err)
		return 1
	}

	history := openHistory(cfg, logger)

	fetcher := quota.NewFetcher(helper.NewExecInvoker(logger), cfg.Locator(), cfg.Helper.Executable, logger)
	refresher := daemon.NewRefresher(fetcher, history, cfg.Refresh.Interval.Duration(), logger)

	audioManager := audio.NewManager(cfg, logger)
	notifier := daemon.NewDesktopNotifier(dbus.NewNotifier(logger), audioManager, logger)
	notifier.SetEnabled(cfg.Alerts.Enabled)
	notifier.SetMinInterval(cfg.Alerts.MinInterval.Duration())
	evaluator := daemon.NewAlertEvaluator()

	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	app := adw.NewApplication(appID, 0)

	var (
		pop           *popover.Popover
		controller    *visibility.Controller
		item          *dbus.Item
		themeLoader   *theme.Loader
		configWatcher *daemon.ConfigWatcher
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := func() {
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			quit()
		case <-ctx.Done():
		}
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			// A second launch activates the running instance.
			if controller != nil {
				controller.OnIconActivated()
			}
			return
		}
		running.Store(true)
		app.Hold()

		themeLoader = theme.NewLoader(config.StylePath(), logger)
		themeLoader.Load()
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx)

		pop = popover.New(&app.Application, geometry(cfg), logger)

		controller = visibility.NewController(pop,
			visibility.WithDelay(cfg.Popover.HideDelay.Duration()),
			visibility.WithLogger(logger),
			visibility.WithOnShown(func() {
				if current.Load().Refresh.OnShow {
					refresher.Trigger()
				}
			}),
		)
		pop.SetFocusListener(controller)
		pop.SetDismissHandler(controller.RequestHide)
		pop.SetRefreshHandler(refresher.Trigger)
		pop.SetQuitHandler(quit)

		go func() {
			if err := controller.Run(ctx); err != nil {
				logger.Error("visibility controller stopped", "error", err)
			}
		}()

		item = dbus.NewItem(dbus.DefaultItemConfig(), logger)
		item.SetActivateHandler(controller.OnIconActivated)
		item.SetQuitHandler(contextMenuQuit(cfg, quit))
		if err := item.Start(); err != nil {
			logger.Error("failed to start tray icon", "error", err)
			quit()
			return
		}

		refresher.OnUpdate(func(res *quota.Result, err error) {
			pop.Update(res, err)
			updateTray(item, res, err)
			if err != nil {
				return
			}
			u, perr := quota.ParseUsage(res)
			if perr != nil {
				return
			}
			for _, a := range evaluator.Evaluate(u) {
				notifier.SendAlert(ctx, a)
			}
		})
		go func() {
			if err := refresher.Run(ctx); err != nil {
				logger.Error("refresher stopped", "error", err)
			}
		}()

		configWatcher = daemon.NewConfigWatcher(configPath, logger)
		configWatcher.SetReloadCallback(func(newConfig *config.Config) {
			current.Store(newConfig)
			controller.SetDelay(newConfig.Popover.HideDelay.Duration())
			refresher.SetInterval(newConfig.Refresh.Interval.Duration())
			audioManager.UpdateConfig(newConfig)
			notifier.SetEnabled(newConfig.Alerts.Enabled)
			notifier.SetMinInterval(newConfig.Alerts.MinInterval.Duration())
			pop.SetGeometry(geometry(newConfig))
			item.SetQuitHandler(contextMenuQuit(newConfig, quit))
			notifier.NotifyConfigReloaded(ctx)
		})
		configWatcher.SetErrorCallback(func(err error) {
			notifier.NotifyConfigError(ctx, err)
		})
		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}

		logger.Info("tokentrayd ready", "bus_name", item.BusName())
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if item != nil {
			_ = item.Stop()
		}
		if pop != nil {
			pop.Destroy()
		}
		audioManager.Close()
		if history != nil {
			_ = history.Close()
		}
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("tokentrayd stopped")
	return 0
}

// contextMenuQuit returns quit when right-clicking the tray icon is
// configured to quit, and nil so the click opens the popover otherwise.
func contextMenuQuit(cfg *config.Config, quit func()) func() {
	if cfg.Tray.ContextMenuQuit {
		return quit
	}
	return nil
}

// openHistory opens the sample log and prunes it to the retention window.
// History is best effort: failures are logged and the daemon runs without it.
func openHistory(cfg *config.Config, logger *slog.Logger) store.History {
	if !cfg.History.Enabled {
		return nil
	}
	if err := config.EnsureDataDir(); err != nil {
		logger.Warn("failed to create data directory", "error", err)
		return nil
	}

	h, err := store.NewJSONLHistory(config.HistoryPath(), logger)
	if err != nil {
		logger.Warn("failed to open history", "error", err)
		return nil
	}

	if retention := cfg.History.Retention.Duration(); retention > 0 {
		removed, err := h.Prune(time.Now().Add(-retention))
		if err != nil {
			logger.Warn("failed to prune history", "error", err)
		} else if removed > 0 {
			logger.Info("pruned history", "removed", removed)
		}
	}
	return h
}

func geometry(cfg *config.Config) popover.Geometry {
	return popover.Geometry{
		Width:       cfg.Popover.Width,
		MarginTop:   cfg.Popover.MarginTop,
		MarginRight: cfg.Popover.MarginRight,
	}
}

// updateTray reflects the latest fetch in the tray icon's status and tooltip.
func updateTray(item *dbus.Item, res *quota.Result, err error) {
	if err != nil {
		item.SetStatus(dbus.StatusActive)
		item.SetToolTip("Token Tray", "Quota unavailable: "+err.Error())
		return
	}

	u, perr := quota.ParseUsage(res)
	if perr != nil {
		item.SetStatus(dbus.StatusActive)
		item.SetToolTip("Token Tray", "")
		return
	}

	s := output.NewWaybarFormatter(output.DefaultFormatterOptions()).Status(u)
	switch u.Level() {
	case quota.LevelCritical, quota.LevelLocked:
		item.SetStatus(dbus.StatusNeedsAttention)
	default:
		item.SetStatus(dbus.StatusActive)
	}
	item.SetToolTip("Token Tray "+s.Text, s.Tooltip)
}
