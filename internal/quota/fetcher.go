package quota

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmylchreest/tokentray/internal/helper"
)

// QuotaArg is the single argument passed to the helper script.
const QuotaArg = "--quota"

// ScriptResolver locates the helper entry script.
type ScriptResolver interface {
	Resolve() (string, error)
}

// Fetcher retrieves the quota document by running the helper once per call.
// It is safe for concurrent use; each call spawns its own process.
type Fetcher struct {
	invoker    helper.Invoker
	resolver   ScriptResolver
	executable string // interpreter, empty = execute the script directly
	logger     *slog.Logger
	now        func() time.Time
}

// NewFetcher creates a new Fetcher. The helper is run as
// `executable <script> --quota`, or `<script> --quota` when executable is empty.
func NewFetcher(invoker helper.Invoker, resolver ScriptResolver, executable string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		invoker:    invoker,
		resolver:   resolver,
		executable: executable,
		logger:     logger,
		now:        time.Now,
	}
}

// Fetch runs the helper and returns its parsed output. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	script, err := f.resolver.Resolve()
	if err != nil {
		return nil, &FetchError{
			Kind:    KindResourceResolutionFailure,
			Message: "failed to locate quota helper",
			Err:     err,
		}
	}

	name, args := script, []string{QuotaArg}
	if f.executable != "" {
		name, args = f.executable, []string{script, QuotaArg}
	}

	out, err := f.invoker.Run(ctx, name, args...)
	if err != nil {
		var spawnErr *helper.SpawnError
		if !errors.As(err, &spawnErr) {
			spawnErr = &helper.SpawnError{Name: name, Err: err}
		}
		return nil, &FetchError{
			Kind:    KindSpawnFailure,
			Message: "failed to run quota helper",
			Err:     spawnErr,
		}
	}

	if !out.Success() {
		f.logger.Debug("quota helper failed", "exit_code", out.ExitCode, "stderr", string(out.Stderr))
		return nil, &FetchError{
			Kind:     KindHelperExecutionFailure,
			Message:  "quota helper failed",
			ExitCode: out.ExitCode,
			Stderr:   strings.TrimSpace(string(out.Stderr)),
		}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(out.Stdout), &raw); err != nil {
		return nil, &FetchError{
			Kind:    KindResponseParseFailure,
			Message: "failed to parse quota helper output",
			Stdout:  string(out.Stdout),
			Err:     err,
		}
	}

	f.logger.Debug("quota fetched", "script", script, "duration", out.Duration, "bytes", len(raw))
	return &Result{Raw: raw, FetchedAt: f.now()}, nil
}
