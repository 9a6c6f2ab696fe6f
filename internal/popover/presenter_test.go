package popover

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSurface struct {
	presents int
	visible  bool
}

func (f *fakeSurface) Present()          { f.presents++; f.visible = true }
func (f *fakeSurface) SetVisible(v bool) { f.visible = v }

func newTestPresenter() (*presenter, *fakeSurface, *int) {
	win := &fakeSurface{}
	renders := 0
	return &presenter{
		win:    win,
		idle:   func(fn func()) { fn() },
		render: func() { renders++ },
		logger: slog.Default(),
	}, win, &renders
}

func TestPresenter_ShowRendersOnce(t *testing.T) {
	p, win, renders := newTestPresenter()

	p.showAndFocus()
	assert.True(t, win.visible)
	assert.Equal(t, 1, win.presents)
	assert.Equal(t, 1, *renders)
}

func TestPresenter_ShowWhileVisibleReassertsFocus(t *testing.T) {
	p, win, renders := newTestPresenter()

	p.showAndFocus()
	p.showAndFocus()
	p.showAndFocus()

	assert.Equal(t, 3, win.presents, "every show requests focus again")
	assert.Equal(t, 1, *renders, "content is only rebuilt when mapping")
}

func TestPresenter_HideIsIdempotent(t *testing.T) {
	p, win, _ := newTestPresenter()

	var hides int
	p.idle = func(fn func()) { hides++; fn() }

	p.hide()
	assert.Zero(t, hides, "hidden window queues no work")

	p.showAndFocus()
	p.hide()
	p.hide()
	assert.False(t, win.visible)
	assert.Equal(t, 2, hides, "one show and one hide queued")
}

func TestPresenter_StaleQueuedShowIsDropped(t *testing.T) {
	p, win, renders := newTestPresenter()

	var queued []func()
	p.idle = func(fn func()) { queued = append(queued, fn) }

	p.showAndFocus()
	p.hide()
	for _, fn := range queued {
		fn()
	}

	assert.Zero(t, win.presents)
	assert.Zero(t, *renders)
	assert.False(t, win.visible)
}

func TestPresenter_DismissRoutesToHandler(t *testing.T) {
	p, win, _ := newTestPresenter()
	p.showAndFocus()

	var dismissed int
	p.setDismissHandler(func() { dismissed++ })
	p.dismiss()

	assert.Equal(t, 1, dismissed)
	assert.True(t, win.visible, "the handler decides whether to hide")
	assert.True(t, p.shown.Load())
}

func TestPresenter_DismissWithoutHandlerHides(t *testing.T) {
	p, win, _ := newTestPresenter()
	p.showAndFocus()

	p.dismiss()
	assert.False(t, win.visible)
	assert.False(t, p.shown.Load())
}
