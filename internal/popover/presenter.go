package popover

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// surface is the part of the GTK window the presenter drives.
type surface interface {
	Present()
	SetVisible(bool)
}

// presenter tracks the requested visibility and queues window work onto
// the main loop through idle.
type presenter struct {
	win    surface
	idle   func(func())
	render func()
	logger *slog.Logger

	shown atomic.Bool

	mu        sync.Mutex
	onDismiss func()
}

// showAndFocus maps the window and requests focus. Content is rebuilt only
// when the window was hidden; an already visible window is presented again
// so it takes focus back.
func (s *presenter) showAndFocus() {
	mapping := !s.shown.Swap(true)
	s.idle(func() {
		if !s.shown.Load() {
			return
		}
		if mapping {
			s.render()
		}
		s.win.Present()
		s.logger.Debug("popover presented", "mapped", mapping)
	})
}

// hide unmaps the window. A no-op when already hidden.
func (s *presenter) hide() {
	if !s.shown.Swap(false) {
		return
	}
	s.idle(func() {
		if s.shown.Load() {
			return
		}
		s.win.SetVisible(false)
		s.logger.Debug("popover hidden")
	})
}

// dismiss handles Escape and compositor close requests. With a dismiss
// handler the decision goes back to whoever owns visibility.
func (s *presenter) dismiss() {
	s.mu.Lock()
	fn := s.onDismiss
	s.mu.Unlock()

	if fn != nil {
		fn()
		return
	}
	s.hide()
}

func (s *presenter) setDismissHandler(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDismiss = fn
}
