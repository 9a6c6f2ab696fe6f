package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Follower tails a history file written by another process and delivers
// the samples appended after it was created.
type Follower struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	offset  int64
}

// NewFollower starts following path from its current end. The file does not
// need to exist yet; samples are delivered once the daemon creates it.
func NewFollower(path string, logger *slog.Logger) (*Follower, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory; Prune replaces the file by rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	f := &Follower{path: path, logger: logger, watcher: watcher}
	if info, err := os.Stat(path); err == nil {
		f.offset = info.Size()
	}
	return f, nil
}

// Run calls fn with each batch of new samples until ctx is cancelled.
func (f *Follower) Run(ctx context.Context, fn func([]Sample)) error {
	defer func() { _ = f.watcher.Close() }()

	name := filepath.Base(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			samples, err := f.readNew()
			if err != nil {
				f.logger.Warn("failed to read history", "path", f.path, "error", err)
				continue
			}
			if len(samples) > 0 {
				fn(samples)
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("history watcher error", "error", err)
		}
	}
}

// readNew returns the complete lines written since the last read. A file
// that shrank was rewritten by Prune; its contents were already seen.
func (f *Follower) readNew() ([]Sample, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < f.offset {
		f.logger.Debug("history rewritten", "path", f.path, "size", info.Size())
		f.offset = info.Size()
		return nil, nil
	}
	if info.Size() == f.offset {
		return nil, nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(file, info.Size()-f.offset))
	if err != nil {
		return nil, err
	}

	// Leave a partially written line for the next event.
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, nil
	}
	data = data[:end+1]
	f.offset += int64(len(data))

	return ReadSamples(bytes.NewReader(data), f.logger)
}
