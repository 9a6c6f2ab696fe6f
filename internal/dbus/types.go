package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Status is the StatusNotifierItem status.
type Status string

const (
	StatusPassive        Status = "Passive"
	StatusActive         Status = "Active"
	StatusNeedsAttention Status = "NeedsAttention"
)

// Pixmap is an ARGB32 icon image in network byte order, D-Bus type (iiay).
type Pixmap struct {
	Width  int32
	Height int32
	Data   []byte
}

// ToolTip is the StatusNotifierItem tooltip, D-Bus type (sa(iiay)ss).
type ToolTip struct {
	IconName    string
	IconPixmap  []Pixmap
	Title       string
	Description string
}

// Urgency levels for desktop notifications.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the string representation of Urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Notification is an outgoing org.freedesktop.Notifications.Notify call.
type Notification struct {
	ReplacesID    uint32
	Icon          string
	Summary       string
	Body          string
	Urgency       Urgency
	Category      string
	Transient     bool
	SuppressSound bool  // set when tokentray plays its own sound
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Hints builds the hints dictionary for the Notify call.
func (n *Notification) Hints() map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(appID),
	}
	if n.Category != "" {
		hints["category"] = dbus.MakeVariant(n.Category)
	}
	if n.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}
	if n.SuppressSound {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	return hints
}
