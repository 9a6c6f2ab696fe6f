package helper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// Output is the captured result of a completed child process.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Success reports whether the process exited with status zero.
func (o *Output) Success() bool {
	return o.ExitCode == 0
}

// Invoker runs an executable to completion.
type Invoker interface {
	// Run starts name with args, waits for it to exit and returns its
	// captured output. A non-zero exit status is not an error; only a
	// failure to launch the process is.
	Run(ctx context.Context, name string, args ...string) (*Output, error)
}

// ExecInvoker implements Invoker with os/exec.
type ExecInvoker struct {
	logger *slog.Logger
}

// NewExecInvoker creates a new ExecInvoker.
func NewExecInvoker(logger *slog.Logger) *ExecInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecInvoker{logger: logger}
}

// Run executes name with args. Stdin is empty, stdout and stderr are
// captured in full. The child is always waited on before Run returns.
func (i *ExecInvoker) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Name: name, Err: err}
	}

	err := cmd.Wait()
	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Wait failed for a reason other than the exit status (I/O copy
			// error); the process has still been reaped.
			return nil, &SpawnError{Name: name, Err: err}
		}
		// -1 when killed by a signal, usually ctx cancellation.
		out.ExitCode = exitErr.ExitCode()
	}

	i.logger.Debug("helper process exited",
		"name", name,
		"exit_code", out.ExitCode,
		"duration", out.Duration,
		"stdout_bytes", len(out.Stdout),
		"stderr_bytes", len(out.Stderr),
	)
	return out, nil
}

// SpawnError is returned when an executable could not be launched.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	if e.Err != nil {
		return "failed to start " + e.Name + ": " + e.Err.Error()
	}
	return "failed to start " + e.Name
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
