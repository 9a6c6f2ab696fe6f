// Package popover implements the GTK4 quota window shown from the tray icon.
//
// The window reports focus changes to a FocusListener and exposes
// ShowAndFocus and Hide so it can be driven by the visibility controller.
// Escape and close requests go to the dismiss handler. All GTK calls are
// marshalled onto the main loop with glib.IdleAdd.
package popover
