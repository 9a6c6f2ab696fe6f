package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SchemaVersion is the current history schema version.
const SchemaVersion = 1

// History defines the interface for sample storage.
type History interface {
	// Load reads all samples from storage, oldest first.
	Load() ([]Sample, error)

	// Append adds a sample to storage.
	Append(s Sample) error

	// Since returns samples recorded at or after t.
	Since(t time.Time) ([]Sample, error)

	// Prune removes samples older than the cutoff and returns how many were removed.
	Prune(olderThan time.Time) (int, error)

	// Close releases file handles and resources.
	Close() error
}

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	TokentraySchemaVersion int   `json:"tokentray_schema_version"`
	CreatedAt              int64 `json:"created_at"`
}

// ErrHistoryClosed is returned when operations are attempted on a closed history.
var ErrHistoryClosed = errors.New("history is closed")

// maxLineSize bounds a single JSONL line.
const maxLineSize = 64 * 1024

// JSONLHistory implements History using an append-only JSONL file.
type JSONLHistory struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
	logger *slog.Logger
}

// NewJSONLHistory opens the history file, creating it and its directory if needed.
func NewJSONLHistory(path string, logger *slog.Logger) (*JSONLHistory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	h := &JSONLHistory{
		path:   path,
		file:   file,
		logger: logger,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := h.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return h, nil
}

// Path returns the backing file path.
func (h *JSONLHistory) Path() string {
	return h.path
}

func (h *JSONLHistory) writeHeader() error {
	data, err := json.Marshal(schemaHeader{
		TokentraySchemaVersion: SchemaVersion,
		CreatedAt:              time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = h.file.Write(append(data, '\n'))
	return err
}

// Load reads all samples from storage.
func (h *JSONLHistory) Load() ([]Sample, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHistoryClosed
	}
	return h.load()
}

func (h *JSONLHistory) load() ([]Sample, error) {
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", h.path, err)
	}
	samples, err := ReadSamples(h.file, h.logger)
	if err != nil {
		return samples, err
	}
	// Appends use O_APPEND, but keep the offset tidy for readers of h.file.
	if _, err := h.file.Seek(0, io.SeekEnd); err != nil {
		return samples, err
	}
	return samples, nil
}

// ReadSamples decodes a history stream. Malformed lines are skipped with a warning.
func ReadSamples(r io.Reader, logger *slog.Logger) ([]Sample, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var samples []Sample
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.TokentraySchemaVersion > 0 {
				if header.TokentraySchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.TokentraySchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var s Sample
		if err := json.Unmarshal(line, &s); err != nil || s.ID == "" {
			logger.Warn("skipping malformed history line", "line", lineNum, "error", err)
			continue
		}
		samples = append(samples, s)
	}

	if err := scanner.Err(); err != nil {
		return samples, fmt.Errorf("error reading history: %w", err)
	}
	return samples, nil
}

// Append adds a sample to storage.
func (h *JSONLHistory) Append(s Sample) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHistoryClosed
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := h.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return h.file.Sync()
}

// Since returns samples recorded at or after t.
func (h *JSONLHistory) Since(t time.Time) ([]Sample, error) {
	all, err := h.Load()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, s := range all {
		if !s.Timestamp.Before(t) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Prune rewrites the file without samples older than the cutoff.
func (h *JSONLHistory) Prune(olderThan time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrHistoryClosed
	}

	all, err := h.load()
	if err != nil {
		return 0, err
	}

	keep := make([]Sample, 0, len(all))
	for _, s := range all {
		if !s.Timestamp.Before(olderThan) {
			keep = append(keep, s)
		}
	}
	removed := len(all) - len(keep)
	if removed == 0 {
		return 0, nil
	}

	if err := h.rewrite(keep); err != nil {
		return 0, err
	}
	h.logger.Debug("pruned history", "removed", removed, "kept", len(keep))
	return removed, nil
}

// rewrite replaces the file via a temp file and rename.
func (h *JSONLHistory) rewrite(samples []Sample) error {
	tmpPath := h.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	w := bufio.NewWriter(tmp)
	header, _ := json.Marshal(schemaHeader{TokentraySchemaVersion: SchemaVersion, CreatedAt: time.Now().Unix()})
	w.Write(append(header, '\n'))
	for _, s := range samples {
		data, err := json.Marshal(s)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return err
		}
		w.Write(append(data, '\n'))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, h.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history: %w", err)
	}

	h.file.Close()
	file, err := os.OpenFile(h.path, os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		h.closed = true
		return fmt.Errorf("failed to reopen history: %w", err)
	}
	h.file = file
	return nil
}

// Close releases file handles and resources.
func (h *JSONLHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.file.Close()
}

// ReadFile loads samples from a history file without opening it for writing.
// A missing file yields no samples.
func ReadFile(path string, logger *slog.Logger) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadSamples(f, logger)
}
