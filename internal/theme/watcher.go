package theme

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher polls the style override file and reports theme changes,
// including the override being created or removed.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	path  string
	theme *Theme

	pollInterval time.Duration

	onChangeCallback func(t *Theme)

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewWatcher creates a watcher for the override at path, starting from the
// currently applied theme.
func NewWatcher(path string, current *Theme, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if current == nil {
		current = NewDefaultTheme()
	}

	return &Watcher{
		logger:       logger,
		path:         path,
		theme:        current,
		pollInterval: 1 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets the polling interval for file changes.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollInterval = interval
}

// SetChangeCallback sets the callback invoked with the new theme.
func (w *Watcher) SetChangeCallback(callback func(t *Theme)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChangeCallback = callback
}

// Start begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.path == "" {
		w.mu.Unlock()
		w.logger.Debug("no style override path, not watching")
		return nil
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	interval := w.pollInterval
	w.mu.Unlock()

	go w.watchLoop(ctx, interval)

	w.logger.Debug("theme watcher started", "path", w.path, "interval", interval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("theme watcher stopped")
}

// Theme returns the theme the watcher last reported.
func (w *Watcher) Theme() *Theme {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.theme
}

func (w *Watcher) watchLoop(ctx context.Context, interval time.Duration) {
	defer close(w.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges compares the override file against the current theme.
func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	current := w.theme
	callback := w.onChangeCallback
	w.mu.RUnlock()

	var next *Theme
	_, err := os.Stat(w.path)
	switch {
	case os.IsNotExist(err):
		if current.IsDefault {
			return
		}
		w.logger.Info("style override removed, using default theme", "path", w.path)
		next = NewDefaultTheme()

	case err != nil:
		w.logger.Debug("failed to stat style override", "path", w.path, "error", err)
		return

	case current.IsDefault:
		t, err := NewTheme(w.path)
		if err != nil {
			w.logger.Warn("failed to load style override", "path", w.path, "error", err)
			return
		}
		w.logger.Info("style override created, applying", "path", w.path)
		next = t

	default:
		reloaded := *current
		changed, err := reloaded.Reload()
		if err != nil {
			w.logger.Warn("failed to reload style override", "path", w.path, "error", err)
			return
		}
		if !changed {
			return
		}
		w.logger.Info("style override changed, reloading", "path", w.path)
		next = &reloaded
	}

	w.mu.Lock()
	w.theme = next
	w.mu.Unlock()

	if callback != nil {
		callback(next)
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
