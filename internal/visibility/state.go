package visibility

import "time"

// State is the visibility of the window as last commanded by the Controller.
type State int32

const (
	Visible State = iota
	Hidden
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Window is the window-system side of the controller.
// Both methods must be safe to call when the window is already in the target state.
type Window interface {
	ShowAndFocus()
	Hide()
}

type eventKind int

const (
	eventFocusLost eventKind = iota
	eventFocusGained
	eventIconActivated
	eventHideRequested
	eventTimerExpired
	eventSetDelay
	eventSync
)

func (k eventKind) String() string {
	switch k {
	case eventFocusLost:
		return "focus_lost"
	case eventFocusGained:
		return "focus_gained"
	case eventIconActivated:
		return "icon_activated"
	case eventHideRequested:
		return "hide_requested"
	case eventTimerExpired:
		return "timer_expired"
	case eventSetDelay:
		return "set_delay"
	case eventSync:
		return "sync"
	default:
		return "unknown"
	}
}

type event struct {
	kind  eventKind
	gen   uint64        // eventTimerExpired
	delay time.Duration // eventSetDelay
	done  chan struct{} // eventSync
}
