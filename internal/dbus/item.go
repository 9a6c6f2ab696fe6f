package dbus

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	// ItemInterface is the StatusNotifierItem interface name.
	ItemInterface = "org.kde.StatusNotifierItem"
	// ItemPath is the object path hosts expect the item at.
	ItemPath = "/StatusNotifierItem"

	watcherBusName   = "org.kde.StatusNotifierWatcher"
	watcherPath      = "/StatusNotifierWatcher"
	watcherInterface = "org.kde.StatusNotifierWatcher"

	appID = "tokentray"
)

// ItemConfig holds the static appearance of the tray item.
type ItemConfig struct {
	Title    string
	IconName string // Freedesktop icon name
}

// DefaultItemConfig returns the default item appearance.
func DefaultItemConfig() ItemConfig {
	return ItemConfig{
		Title:    "Token Tray",
		IconName: "utilities-system-monitor",
	}
}

// Item exports a StatusNotifierItem on the session bus.
//
// Left and middle clicks call the activate handler. The item carries no menu
// of its own: a context-menu request calls the quit handler when one is set
// and activates otherwise.
type Item struct {
	conn   *dbus.Conn
	props  *prop.Properties
	logger *slog.Logger
	cfg    ItemConfig

	busName string

	onActivate func()
	onQuit     func()

	mu      sync.Mutex
	running bool
	status  Status
	tooltip ToolTip
}

// NewItem creates a new tray item. It does not touch the bus until Start.
func NewItem(cfg ItemConfig, logger *slog.Logger) *Item {
	if logger == nil {
		logger = slog.Default()
	}
	return &Item{
		logger:  logger,
		cfg:     cfg,
		busName: fmt.Sprintf("%s-%d-1", ItemInterface, os.Getpid()),
		status:  StatusActive,
		tooltip: ToolTip{IconName: cfg.IconName, Title: cfg.Title},
	}
}

// SetActivateHandler sets the handler called when the icon is clicked.
// The handler runs on the D-Bus dispatch goroutine and must not block.
func (i *Item) SetActivateHandler(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onActivate = fn
}

// SetQuitHandler sets the handler called when the host asks for a context
// menu. nil makes a context-menu request activate the item instead.
func (i *Item) SetQuitHandler(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onQuit = fn
}

func (i *Item) handlers() (activate, quit func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.onActivate, i.onQuit
}

// BusName returns the well-known name claimed by the item.
func (i *Item) BusName() string {
	return i.busName
}

// Start exports the item on the shared session bus connection and
// registers it with the StatusNotifierWatcher.
func (i *Item) Start() error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return i.StartOn(conn)
}

// StartOn exports the item on conn. A missing watcher is logged, not fatal.
func (i *Item) StartOn(conn *dbus.Conn) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return fmt.Errorf("tray item already running")
	}
	i.mu.Unlock()

	i.conn = conn

	if err := conn.Export(i, ItemPath, ItemInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	props, err := prop.Export(conn, ItemPath, i.propertyMap())
	if err != nil {
		return fmt.Errorf("failed to export properties: %w", err)
	}
	i.props = props

	node := &introspect.Node{
		Name: ItemPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       ItemInterface,
				Methods:    itemMethods(),
				Signals:    itemSignals(),
				Properties: props.Introspection(ItemInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ItemPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(i.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", i.busName)
	}

	i.mu.Lock()
	i.running = true
	i.mu.Unlock()

	if err := i.register(); err != nil {
		i.logger.Warn("no StatusNotifierWatcher, tray icon will not be visible", "error", err)
	}

	i.logger.Info("tray item started", "bus_name", i.busName, "path", ItemPath)
	return nil
}

func (i *Item) register() error {
	obj := i.conn.Object(watcherBusName, watcherPath)
	call := obj.Call(watcherInterface+".RegisterStatusNotifierItem", 0, i.busName)
	if call.Err != nil {
		return fmt.Errorf("failed to register with %s: %w", watcherBusName, call.Err)
	}
	return nil
}

// Stop releases the bus name and unexports the item.
func (i *Item) Stop() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return nil
	}
	i.running = false

	if i.conn != nil {
		if _, err := i.conn.ReleaseName(i.busName); err != nil {
			i.logger.Warn("failed to release bus name", "error", err)
		}
		_ = i.conn.Export(nil, ItemPath, ItemInterface)
		// Don't close the connection as it's shared (SessionBus)
	}

	i.logger.Info("tray item stopped")
	return nil
}

// Status returns the current item status.
func (i *Item) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// ToolTip returns the current tooltip.
func (i *Item) ToolTip() ToolTip {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tooltip
}

// SetStatus updates the item status and emits NewStatus.
func (i *Item) SetStatus(status Status) {
	i.mu.Lock()
	if i.status == status {
		i.mu.Unlock()
		return
	}
	i.status = status
	i.mu.Unlock()

	i.setProp("Status", string(status))
	i.emit("NewStatus", string(status))
}

// SetToolTip updates the tooltip text and emits NewToolTip.
func (i *Item) SetToolTip(title, description string) {
	i.mu.Lock()
	if i.tooltip.Title == title && i.tooltip.Description == description {
		i.mu.Unlock()
		return
	}
	i.tooltip.Title = title
	i.tooltip.Description = description
	tt := i.tooltip
	i.mu.Unlock()

	i.setProp("ToolTip", tt)
	i.emit("NewToolTip")
}

// Activate is called by the host on a primary click.
// D-Bus method: Activate(ii)
func (i *Item) Activate(x, y int32) *dbus.Error {
	i.logger.Debug("Activate called", "x", x, "y", y)
	if activate, _ := i.handlers(); activate != nil {
		activate()
	}
	return nil
}

// SecondaryActivate is called by the host on a middle click.
// D-Bus method: SecondaryActivate(ii)
func (i *Item) SecondaryActivate(x, y int32) *dbus.Error {
	i.logger.Debug("SecondaryActivate called", "x", x, "y", y)
	if activate, _ := i.handlers(); activate != nil {
		activate()
	}
	return nil
}

// ContextMenu is called by the host on a right click.
// D-Bus method: ContextMenu(ii)
func (i *Item) ContextMenu(x, y int32) *dbus.Error {
	i.logger.Debug("ContextMenu called", "x", x, "y", y)
	activate, quit := i.handlers()
	switch {
	case quit != nil:
		quit()
	case activate != nil:
		activate()
	}
	return nil
}

// Scroll is ignored.
// D-Bus method: Scroll(is)
func (i *Item) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}

func (i *Item) propertyMap() prop.Map {
	i.mu.Lock()
	defer i.mu.Unlock()

	ro := func(v any, emit prop.EmitType) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: emit}
	}
	return prop.Map{
		ItemInterface: {
			"Category":   ro("ApplicationStatus", prop.EmitConst),
			"Id":         ro(appID, prop.EmitConst),
			"Title":      ro(i.cfg.Title, prop.EmitTrue),
			"Status":     ro(string(i.status), prop.EmitTrue),
			"IconName":   ro(i.cfg.IconName, prop.EmitTrue),
			"ToolTip":    ro(i.tooltip, prop.EmitTrue),
			"ItemIsMenu": ro(false, prop.EmitConst),
			"Menu":       ro(dbus.ObjectPath("/NO_DBUSMENU"), prop.EmitConst),
			"WindowId":   ro(int32(0), prop.EmitConst),
		},
	}
}

func (i *Item) setProp(name string, value any) {
	if i.props == nil {
		return
	}
	// SetMust is the owner-side setter; Set is the D-Bus method and
	// refuses read-only properties.
	i.props.SetMust(ItemInterface, name, value)
}

func (i *Item) emit(signal string, args ...any) {
	if i.conn == nil {
		return
	}
	if err := i.conn.Emit(ItemPath, ItemInterface+"."+signal, args...); err != nil {
		i.logger.Warn("failed to emit tray signal", "signal", signal, "error", err)
		return
	}
	i.logger.Debug("emitted tray signal", "signal", signal)
}

// itemMethods returns the D-Bus method introspection data.
func itemMethods() []introspect.Method {
	pos := []introspect.Arg{
		{Name: "x", Type: "i", Direction: "in"},
		{Name: "y", Type: "i", Direction: "in"},
	}
	return []introspect.Method{
		{Name: "Activate", Args: pos},
		{Name: "SecondaryActivate", Args: pos},
		{Name: "ContextMenu", Args: pos},
		{
			Name: "Scroll",
			Args: []introspect.Arg{
				{Name: "delta", Type: "i", Direction: "in"},
				{Name: "orientation", Type: "s", Direction: "in"},
			},
		},
	}
}

// itemSignals returns the D-Bus signal introspection data.
func itemSignals() []introspect.Signal {
	return []introspect.Signal{
		{Name: "NewTitle"},
		{Name: "NewIcon"},
		{Name: "NewToolTip"},
		{Name: "NewStatus", Args: []introspect.Arg{{Name: "status", Type: "s"}}},
	}
}
