package popover

import (
	"log/slog"
	"sync"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/tokentray/internal/quota"
)

// FocusListener receives the window's focus transitions.
type FocusListener interface {
	OnFocusGained()
	OnFocusLost()
}

// Geometry places the popover on screen.
type Geometry struct {
	Width       int
	MarginTop   int
	MarginRight int
}

// Popover is the single quota window. ShowAndFocus, Hide and Update may be
// called from any goroutine.
type Popover struct {
	window *gtk.Window
	logger *slog.Logger

	box        *gtk.Box
	headerLbl  *gtk.Label
	rowsBox    *gtk.Box
	extraLbl   *gtk.Label
	rawLbl     *gtk.Label
	updatedLbl *gtk.Label
	errorLbl   *gtk.Label
	refreshBtn *gtk.Button
	quitBtn    *gtk.Button

	mu        sync.Mutex
	listener  FocusListener
	onRefresh func()
	onQuit    func()
	result    *quota.Result
	fetchErr  error
	now       func() time.Time

	present     *presenter
	headerLevel string
}

// New creates the popover window. Must be called on the GTK main thread,
// after the application has been activated.
func New(app *gtk.Application, geo Geometry, logger *slog.Logger) *Popover {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Popover{
		logger: logger,
		now:    time.Now,
	}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.SetTitle("Token Tray")

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(p.window, 0)
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeOnDemand)
	layershell.SetNamespace(p.window, "tokentray-popover")
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(p.window, layershell.LayerShellEdgeRight, true)

	p.present = &presenter{
		win:    p.window,
		idle:   func(fn func()) { glib.IdleAdd(fn) },
		render: p.render,
		logger: logger,
	}

	p.buildUI()
	p.applyGeometry(geo)
	p.connectSignals()
	p.render()

	return p
}

// SetFocusListener sets the receiver of focus transitions.
func (p *Popover) SetFocusListener(l FocusListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

// SetDismissHandler sets the callback for Escape and compositor close
// requests. Without one the popover hides itself.
func (p *Popover) SetDismissHandler(fn func()) {
	p.present.setDismissHandler(fn)
}

// SetRefreshHandler sets the callback for the Refresh button.
func (p *Popover) SetRefreshHandler(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRefresh = fn
}

// SetQuitHandler sets the callback for the Quit button.
func (p *Popover) SetQuitHandler(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onQuit = fn
}

func (p *Popover) buildUI() {
	p.box = gtk.NewBox(gtk.OrientationVertical, 4)
	p.box.AddCSSClass("tokentray-popover")

	p.headerLbl = newLabel("level-header")
	p.box.Append(p.headerLbl)

	p.rowsBox = gtk.NewBox(gtk.OrientationVertical, 6)
	p.box.Append(p.rowsBox)

	p.extraLbl = newLabel("extra-usage")
	p.box.Append(p.extraLbl)

	p.rawLbl = newLabel("raw-document")
	p.rawLbl.SetSelectable(true)
	p.rawLbl.SetWrap(true)
	p.box.Append(p.rawLbl)

	p.updatedLbl = newLabel("updated-label")
	p.box.Append(p.updatedLbl)

	p.errorLbl = newLabel("error-label")
	p.errorLbl.SetWrap(true)
	p.box.Append(p.errorLbl)

	actions := gtk.NewBox(gtk.OrientationHorizontal, 6)
	actions.AddCSSClass("popover-actions")
	actions.SetHAlign(gtk.AlignEnd)

	p.refreshBtn = gtk.NewButtonWithLabel("Refresh")
	p.refreshBtn.AddCSSClass("refresh-button")
	actions.Append(p.refreshBtn)

	p.quitBtn = gtk.NewButtonWithLabel("Quit")
	p.quitBtn.AddCSSClass("quit-button")
	actions.Append(p.quitBtn)

	p.box.Append(actions)
	p.window.SetChild(p.box)
}

func newLabel(class string) *gtk.Label {
	lbl := gtk.NewLabel("")
	lbl.AddCSSClass(class)
	lbl.SetXAlign(0)
	return lbl
}

func (p *Popover) connectSignals() {
	p.window.NotifyProperty("is-active", func() {
		p.mu.Lock()
		l := p.listener
		p.mu.Unlock()
		if l == nil {
			return
		}
		if p.window.IsActive() {
			l.OnFocusGained()
		} else {
			l.OnFocusLost()
		}
	})

	// Closing via the compositor hides instead of destroying the window.
	p.window.ConnectCloseRequest(func() bool {
		p.present.dismiss()
		return true
	})

	keyCtrl := gtk.NewEventControllerKey()
	keyCtrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			p.present.dismiss()
			return true
		}
		return false
	})
	p.window.AddController(keyCtrl)

	p.refreshBtn.ConnectClicked(func() {
		p.mu.Lock()
		fn := p.onRefresh
		p.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
	p.quitBtn.ConnectClicked(func() {
		p.mu.Lock()
		fn := p.onQuit
		p.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

// ShowAndFocus presents the window and requests keyboard focus. When the
// window is already shown it only asks for focus again.
func (p *Popover) ShowAndFocus() {
	p.present.showAndFocus()
}

// Hide hides the window. A no-op when already hidden.
func (p *Popover) Hide() {
	p.present.hide()
}

// Visible reports the last requested visibility.
func (p *Popover) Visible() bool {
	return p.present.shown.Load()
}

// Update records the latest fetch outcome and re-renders. A failed fetch
// keeps the previous result on screen alongside the error.
func (p *Popover) Update(res *quota.Result, err error) {
	p.mu.Lock()
	if res != nil {
		p.result = res
	}
	p.fetchErr = err
	p.mu.Unlock()

	glib.IdleAdd(p.render)
}

// SetGeometry applies new size and margins, e.g. after a config reload.
func (p *Popover) SetGeometry(geo Geometry) {
	glib.IdleAdd(func() {
		p.applyGeometry(geo)
	})
}

func (p *Popover) applyGeometry(geo Geometry) {
	p.window.SetDefaultSize(geo.Width, -1)
	p.box.SetSizeRequest(geo.Width, -1)
	layershell.SetMargin(p.window, layershell.LayerShellEdgeTop, geo.MarginTop)
	layershell.SetMargin(p.window, layershell.LayerShellEdgeRight, geo.MarginRight)
}

// render rebuilds the content. Runs on the GTK main thread.
func (p *Popover) render() {
	p.mu.Lock()
	c := BuildContent(p.result, p.fetchErr, p.now())
	p.mu.Unlock()

	p.headerLbl.SetText(c.Header)
	if p.headerLevel != "" {
		p.headerLbl.RemoveCSSClass(p.headerLevel)
	}
	p.headerLevel = levelClass(c.Level)
	if p.headerLevel != "" {
		p.headerLbl.AddCSSClass(p.headerLevel)
	}

	for child := p.rowsBox.FirstChild(); child != nil; child = p.rowsBox.FirstChild() {
		p.rowsBox.Remove(child)
	}
	for _, row := range c.Rows {
		p.rowsBox.Append(buildRowWidget(row))
	}

	setOptional(p.extraLbl, c.Extra)
	setOptional(p.rawLbl, c.Raw)
	setOptional(p.updatedLbl, c.Updated)
	setOptional(p.errorLbl, c.Error)
}

func buildRowWidget(row WindowRow) gtk.Widgetter {
	box := gtk.NewBox(gtk.OrientationVertical, 2)
	box.AddCSSClass("quota-window")

	head := gtk.NewBox(gtk.OrientationHorizontal, 6)
	name := newLabel("window-name")
	name.SetText(row.Name)
	name.SetHExpand(true)
	head.Append(name)
	pct := newLabel("window-percent")
	pct.SetText(row.Percent)
	head.Append(pct)
	box.Append(head)

	bar := gtk.NewProgressBar()
	bar.AddCSSClass("quota-bar")
	bar.AddCSSClass(levelClass(row.Level))
	bar.SetFraction(row.Fraction)
	box.Append(bar)

	resets := newLabel("reset-label")
	resets.SetText(row.Resets)
	box.Append(resets)

	if row.Pace != "" {
		pace := newLabel("pace-warning")
		pace.SetText(row.Pace)
		box.Append(pace)
	}
	return box
}

func setOptional(lbl *gtk.Label, text string) {
	lbl.SetText(text)
	lbl.SetVisible(text != "")
}

// Destroy releases the window. Must be called on the GTK main thread.
func (p *Popover) Destroy() {
	p.window.Destroy()
}
