// Package helper runs the external quota helper process and resolves the
// location of its entry script for the configured run mode.
package helper
