// Package visibility decides when the popover window is shown and hidden.
//
// Focus and icon events race each other: clicking the tray icon first takes
// focus away from the popover, so a naive hide-on-blur makes the window
// flicker closed and open again. The Controller delays the hide by a short
// debounce and only acts if the hide is still wanted when the delay expires.
//
// All state lives on a single event-loop goroutine. Events are queued from any
// goroutine without blocking and are processed strictly in arrival order
// together with timer expiries.
package visibility
