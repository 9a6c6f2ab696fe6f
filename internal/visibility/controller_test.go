package visibility

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	shows atomic.Int32
	hides atomic.Int32
}

func (w *fakeWindow) ShowAndFocus() { w.shows.Add(1) }
func (w *fakeWindow) Hide()         { w.hides.Add(1) }

// startController runs c until the test ends.
func startController(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Sync(ctx))
}

func TestController_FocusLostHidesOnce(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w)
	startController(t, c)

	c.OnFocusLost()
	waitIdle(t, c)
	assert.True(t, c.HideIntent())
	assert.Equal(t, Visible, c.State())

	assert.Eventually(t, func() bool { return w.hides.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return w.hides.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, Hidden, c.State())
	assert.False(t, c.HideIntent())
}

func TestController_RepeatedFocusLostHidesOnce(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w, WithDelay(20*time.Millisecond))
	startController(t, c)

	for range 5 {
		c.OnFocusLost()
	}

	assert.Eventually(t, func() bool { return c.State() == Hidden }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return w.hides.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestController_FocusGainedCancelsHide(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w)
	startController(t, c)

	c.OnFocusLost()
	c.OnFocusGained()
	waitIdle(t, c)
	assert.False(t, c.HideIntent())

	assert.Never(t, func() bool { return w.hides.Load() > 0 }, 3*DefaultHideDelay, 10*time.Millisecond)
	assert.Equal(t, Visible, c.State())
}

func TestController_IconActivatedCancelsHide(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w)
	startController(t, c)

	// Clicking the icon steals focus from the window first.
	c.OnFocusLost()
	c.OnIconActivated()
	waitIdle(t, c)

	assert.Equal(t, Visible, c.State())
	assert.False(t, c.HideIntent())
	assert.Equal(t, int32(1), w.shows.Load())
	assert.Never(t, func() bool { return w.hides.Load() > 0 }, 3*DefaultHideDelay, 10*time.Millisecond)
}

func TestController_IconActivatedShowsFromAnyState(t *testing.T) {
	tests := []struct {
		name    string
		initial State
	}{
		{"from visible", Visible},
		{"from hidden", Hidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWindow{}
			c := NewController(w, WithInitialState(tt.initial))
			startController(t, c)

			c.OnIconActivated()
			waitIdle(t, c)
			assert.Equal(t, Visible, c.State())
			assert.False(t, c.HideIntent())

			// Repeated activation re-asserts focus without changing state.
			c.OnIconActivated()
			waitIdle(t, c)
			assert.Equal(t, Visible, c.State())
			assert.Equal(t, int32(2), w.shows.Load())
		})
	}
}

func TestController_RequestHide(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w)
	startController(t, c)

	c.OnFocusLost()
	c.RequestHide()
	waitIdle(t, c)

	// State follows the window right away, not after the debounce.
	assert.Equal(t, Hidden, c.State())
	assert.False(t, c.HideIntent())
	assert.Equal(t, int32(1), w.hides.Load())
	assert.Never(t, func() bool { return w.hides.Load() > 1 }, 3*DefaultHideDelay, 10*time.Millisecond)

	c.OnIconActivated()
	waitIdle(t, c)
	assert.Equal(t, Visible, c.State())
	assert.Equal(t, int32(1), w.shows.Load())
}

func TestController_FocusLostWhileHidden(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w, WithInitialState(Hidden), WithDelay(0))
	startController(t, c)

	c.OnFocusLost()
	waitIdle(t, c)
	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, int32(1), w.hides.Load())
}

func TestController_StressFocusLostThenGained(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w)
	startController(t, c)

	deadline := time.Now().Add(10 * time.Millisecond)
	for i := 0; i < 50; i++ {
		c.OnFocusLost()
		if remaining := time.Until(deadline); remaining > 0 {
			time.Sleep(remaining / time.Duration(50-i))
		}
	}
	c.OnFocusGained()

	// Wait well past every timer that could have been scheduled.
	time.Sleep(3 * DefaultHideDelay)
	waitIdle(t, c)

	assert.Equal(t, Visible, c.State())
	assert.Zero(t, w.hides.Load())
}

func TestController_ConcurrentEvents(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w, WithDelay(10*time.Millisecond))
	startController(t, c)

	done := make(chan struct{})
	for range 4 {
		go func() {
			for range 100 {
				c.OnFocusLost()
				c.OnFocusGained()
			}
			done <- struct{}{}
		}()
	}
	for range 4 {
		<-done
	}

	// Every goroutine ends with focus gained, and the last queued event wins.
	c.OnFocusGained()
	waitIdle(t, c)
	assert.False(t, c.HideIntent())
	hides := w.hides.Load()
	assert.Never(t, func() bool { return w.hides.Load() != hides }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestController_ZeroDelayHidesImmediately(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w, WithDelay(0))
	startController(t, c)

	c.OnFocusLost()
	waitIdle(t, c)
	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, int32(1), w.hides.Load())
}

func TestController_SetDelay(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w, WithDelay(time.Hour))
	startController(t, c)

	c.SetDelay(0)
	c.OnFocusLost()
	waitIdle(t, c)
	assert.Equal(t, Hidden, c.State())

	c.OnIconActivated()
	c.SetDelay(200 * time.Millisecond)
	c.OnFocusLost()
	waitIdle(t, c)
	assert.Equal(t, Visible, c.State())
	assert.Eventually(t, func() bool { return c.State() == Hidden }, 2*time.Second, 10*time.Millisecond)
}

func TestController_OnShown(t *testing.T) {
	var shown atomic.Int32
	w := &fakeWindow{}
	c := NewController(w, WithInitialState(Hidden), WithOnShown(func() { shown.Add(1) }))
	startController(t, c)

	c.OnIconActivated()
	c.OnIconActivated()
	waitIdle(t, c)

	assert.Equal(t, int32(1), shown.Load(), "only the hidden to visible transition counts")
}

func TestController_EventsBeforeRun(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w, WithInitialState(Hidden))
	c.OnIconActivated()
	assert.Equal(t, Hidden, c.State())

	startController(t, c)
	waitIdle(t, c)
	assert.Equal(t, Visible, c.State())
}

func TestController_RunTwice(t *testing.T) {
	c := NewController(&fakeWindow{})
	startController(t, c)
	waitIdle(t, c)

	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyRunning)
}

func TestController_EventsAfterStopAreDropped(t *testing.T) {
	w := &fakeWindow{}
	c := NewController(w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	waitIdle(t, c)
	cancel()
	<-done

	c.OnIconActivated()
	assert.NoError(t, c.Sync(context.Background()))
	assert.Zero(t, w.shows.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "visible", Visible.String())
	assert.Equal(t, "hidden", Hidden.String())
	assert.Equal(t, "unknown", State(9).String())
}
