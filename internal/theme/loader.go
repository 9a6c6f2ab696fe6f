package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader applies the popover stylesheet to the display and keeps it in sync
// with the override file.
type Loader struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	path     string
	theme    *Theme
	watcher  *Watcher
}

// NewLoader creates a loader for the override at path.
// Must be called on the GTK main thread.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		path:     path,
	}
}

// Load resolves the theme and loads it into the CSS provider.
func (l *Loader) Load() {
	t := Resolve(l.path, l.logger)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = t
	l.provider.LoadFromString(t.CSS)
	if t.IsDefault {
		l.logger.Info("loaded bundled theme")
	} else {
		l.logger.Info("loaded style override", "path", t.Path)
	}
}

// Apply installs the provider on a display. A nil display means the default one.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.logger.Debug("applied theme to display", "name", l.Theme().Name)
}

// Theme returns the currently loaded theme.
func (l *Loader) Theme() *Theme {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.theme
}

// StartHotReload polls the override file and reloads the provider on the
// GTK main loop when it changes.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
	}

	l.watcher = NewWatcher(l.path, l.theme, l.logger)
	l.watcher.SetChangeCallback(func(t *Theme) {
		css := t.CSS
		glib.IdleAdd(func() {
			l.mu.Lock()
			l.theme = t
			l.provider.LoadFromString(css)
			l.mu.Unlock()
			l.logger.Info("hot-reloaded theme", "name", t.Name)
		})
	})

	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the override file.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}
