package visibility

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultHideDelay is how long a focus loss must persist before the window hides.
const DefaultHideDelay = 100 * time.Millisecond

// ErrAlreadyRunning is returned when Run is called more than once.
var ErrAlreadyRunning = errors.New("visibility controller already running")

// Option configures a Controller.
type Option func(*Controller)

// WithDelay sets the hide delay. Zero hides immediately on focus loss.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithInitialState sets the state the window is in when the controller starts.
func WithInitialState(s State) Option {
	return func(c *Controller) {
		c.state = s
	}
}

// WithOnShown registers a callback run on the event loop whenever the window
// goes from Hidden to Visible. It must not block.
func WithOnShown(fn func()) Option {
	return func(c *Controller) {
		c.onShown = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller owns the show/hide decision for a single window.
//
// OnFocusLost, OnFocusGained, OnIconActivated and RequestHide may be called from any
// goroutine and never block. Events queued before Run starts are processed
// once it does; events queued after Run returns are dropped.
type Controller struct {
	window  Window
	logger  *slog.Logger
	onShown func()

	mu      sync.Mutex
	queue   []event
	closed  bool
	started bool
	wake    chan struct{}

	// Owned by the event loop.
	state  State
	intent bool
	delay  time.Duration
	timer  *time.Timer
	gen    uint64

	// Published copies for State and HideIntent.
	stateView  atomic.Int32
	intentView atomic.Bool
}

// NewController creates a controller driving window.
func NewController(window Window, opts ...Option) *Controller {
	c := &Controller{
		window: window,
		logger: slog.Default(),
		delay:  DefaultHideDelay,
		state:  Visible,
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stateView.Store(int32(c.state))
	return c
}

// OnFocusLost records that the window lost input focus and schedules a hide.
func (c *Controller) OnFocusLost() {
	c.enqueue(event{kind: eventFocusLost})
}

// OnFocusGained records that the window regained focus, cancelling any pending hide.
func (c *Controller) OnFocusGained() {
	c.enqueue(event{kind: eventFocusGained})
}

// OnIconActivated cancels any pending hide and shows and focuses the window.
func (c *Controller) OnIconActivated() {
	c.enqueue(event{kind: eventIconActivated})
}

// RequestHide hides the window now, e.g. when the user dismisses it with
// Escape. Any pending hide is cancelled.
func (c *Controller) RequestHide() {
	c.enqueue(event{kind: eventHideRequested})
}

// SetDelay changes the hide delay for subsequent focus losses.
func (c *Controller) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.enqueue(event{kind: eventSetDelay, delay: d})
}

// State returns the last state commanded by the event loop.
func (c *Controller) State() State {
	return State(c.stateView.Load())
}

// HideIntent reports whether a hide is pending.
func (c *Controller) HideIntent() bool {
	return c.intentView.Load()
}

// Sync waits until every event queued before the call has been processed.
// It returns early if ctx is done or the controller stops.
func (c *Controller) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if !c.enqueue(event{kind: eventSync, done: done}) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.started = true
	c.mu.Unlock()

	c.logger.Debug("visibility controller started", "state", c.state, "delay", c.delay)
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
			for _, ev := range c.drain() {
				c.handle(ev)
			}
		}
	}
}

// enqueue appends ev and wakes the loop. It reports false if the loop has stopped.
func (c *Controller) enqueue(ev event) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, ev)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *Controller) drain() []event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.queue
	c.queue = nil
	return events
}

func (c *Controller) shutdown() {
	c.stopTimer()

	c.mu.Lock()
	c.closed = true
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, ev := range pending {
		if ev.done != nil {
			close(ev.done)
		}
	}
	c.logger.Debug("visibility controller stopped")
}

func (c *Controller) handle(ev event) {
	switch ev.kind {
	case eventFocusLost:
		c.setIntent(true)
		if c.delay == 0 {
			c.expire()
			return
		}
		c.startTimer()

	case eventFocusGained:
		c.setIntent(false)
		c.stopTimer()

	case eventIconActivated:
		c.setIntent(false)
		c.stopTimer()
		c.show()

	case eventHideRequested:
		c.setIntent(false)
		c.stopTimer()
		c.hide()

	case eventTimerExpired:
		if ev.gen != c.gen || c.timer == nil {
			c.logger.Debug("ignoring stale hide timer", "gen", ev.gen, "current", c.gen)
			return
		}
		c.timer = nil
		c.expire()

	case eventSetDelay:
		c.delay = ev.delay

	case eventSync:
		close(ev.done)
	}
}

// expire applies the pending decision: hide only if the intent survived.
func (c *Controller) expire() {
	if !c.intent {
		return
	}
	c.setIntent(false)
	c.hide()
}

func (c *Controller) startTimer() {
	c.stopTimer()
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() {
		c.enqueue(event{kind: eventTimerExpired, gen: gen})
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// Invalidate an expiry that may already be queued.
	c.gen++
}

func (c *Controller) show() {
	wasHidden := c.state == Hidden
	c.window.ShowAndFocus()
	c.setState(Visible)
	if wasHidden && c.onShown != nil {
		c.onShown()
	}
}

func (c *Controller) hide() {
	c.window.Hide()
	c.setState(Hidden)
}

func (c *Controller) setIntent(v bool) {
	c.intent = v
	c.intentView.Store(v)
}

func (c *Controller) setState(s State) {
	if s != c.state {
		c.logger.Debug("window visibility changed", "from", c.state, "to", s)
	}
	c.state = s
	c.stateView.Store(int32(s))
}
