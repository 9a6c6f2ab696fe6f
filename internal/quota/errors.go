package quota

import (
	"errors"
	"fmt"
)

// ErrorKind classifies quota fetch failures.
type ErrorKind int

const (
	// KindSpawnFailure means the helper executable could not be started.
	KindSpawnFailure ErrorKind = iota + 1
	// KindHelperExecutionFailure means the helper ran but exited non-zero.
	KindHelperExecutionFailure
	// KindResponseParseFailure means the helper exited zero but stdout was not valid JSON.
	KindResponseParseFailure
	// KindResourceResolutionFailure means the helper script could not be located.
	KindResourceResolutionFailure
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindSpawnFailure:
		return "spawn_failure"
	case KindHelperExecutionFailure:
		return "helper_execution_failure"
	case KindResponseParseFailure:
		return "response_parse_failure"
	case KindResourceResolutionFailure:
		return "resource_resolution_failure"
	default:
		return "unknown"
	}
}

// FetchError is returned by Fetcher.Fetch for every failure.
type FetchError struct {
	Kind     ErrorKind
	Message  string
	ExitCode int    // helper execution failures only
	Stderr   string // helper execution failures only
	Stdout   string // parse failures only, the raw output
	Err      error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if e.Kind == KindHelperExecutionFailure {
		msg = fmt.Sprintf("%s (exit status %d)", msg, e.ExitCode)
		if e.Stderr != "" {
			msg += ": " + e.Stderr
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or 0 if err is not a FetchError.
func KindOf(err error) ErrorKind {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	return 0
}

// IsSpawnFailure reports whether err is a spawn failure.
func IsSpawnFailure(err error) bool {
	return KindOf(err) == KindSpawnFailure
}

// IsHelperExecutionFailure reports whether err is a non-zero helper exit.
func IsHelperExecutionFailure(err error) bool {
	return KindOf(err) == KindHelperExecutionFailure
}

// IsResponseParseFailure reports whether err is a malformed helper response.
func IsResponseParseFailure(err error) bool {
	return KindOf(err) == KindResponseParseFailure
}

// IsResourceResolutionFailure reports whether err is a helper resolution failure.
func IsResourceResolutionFailure(err error) bool {
	return KindOf(err) == KindResourceResolutionFailure
}
