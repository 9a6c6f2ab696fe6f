package helper

import (
	"fmt"
	"os"
	"path/filepath"
)

// Mode selects how the helper entry script is located.
type Mode string

const (
	// ModeDevelopment resolves the script relative to the working directory.
	ModeDevelopment Mode = "development"
	// ModePackaged resolves the script inside the installed resource directory.
	ModePackaged Mode = "packaged"
)

// ValidModes returns all valid run modes.
func ValidModes() []Mode {
	return []Mode{ModeDevelopment, ModePackaged}
}

// DefaultDevScript is the development entry script, relative to the working directory.
const DefaultDevScript = "dist/lib.js"

// packagedScript is the entry script path inside the resource directory.
var packagedScript = filepath.Join("dist", "lib.js")

// Locator resolves the helper entry script for a run mode.
type Locator struct {
	Mode        Mode
	DevScript   string // development: script path, relative paths use the working directory
	ResourceDir string // packaged: resource directory, empty = derived from the executable

	// executable is os.Executable, replaced in tests.
	executable func() (string, error)
}

// NewLocator creates a Locator for the given mode.
func NewLocator(mode Mode, devScript, resourceDir string) *Locator {
	return &Locator{
		Mode:        mode,
		DevScript:   devScript,
		ResourceDir: resourceDir,
		executable:  os.Executable,
	}
}

// Resolve returns the absolute path of the helper entry script.
// The path must name an existing regular file.
func (l *Locator) Resolve() (string, error) {
	var path string

	switch l.Mode {
	case ModeDevelopment:
		script := l.DevScript
		if script == "" {
			script = DefaultDevScript
		}
		abs, err := filepath.Abs(script)
		if err != nil {
			return "", &ResolveError{Mode: l.Mode, Message: "failed to resolve development script", Err: err}
		}
		path = abs

	case ModePackaged:
		dir, err := l.resourceDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, packagedScript)

	default:
		return "", &ResolveError{Mode: l.Mode, Message: fmt.Sprintf("unknown run mode %q", l.Mode)}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ResolveError{Mode: l.Mode, Path: path, Message: "helper script not found", Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &ResolveError{Mode: l.Mode, Path: path, Message: "helper script is not a regular file"}
	}

	return path, nil
}

// resourceDir returns the configured resource directory, or
// <executable dir>/../share/tokentray when none is configured.
func (l *Locator) resourceDir() (string, error) {
	if l.ResourceDir != "" {
		return expandPath(l.ResourceDir), nil
	}

	executable := l.executable
	if executable == nil {
		executable = os.Executable
	}
	exe, err := executable()
	if err != nil {
		return "", &ResolveError{Mode: l.Mode, Message: "failed to determine resource directory", Err: err}
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "share", "tokentray"), nil
}

// ResolveError is returned when the helper script location cannot be determined.
type ResolveError struct {
	Mode    Mode
	Path    string
	Message string
	Err     error
}

func (e *ResolveError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
