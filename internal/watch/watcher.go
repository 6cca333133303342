// Package watch re-runs a handler whenever watched post files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Handler processes one changed file.
type Handler func(ctx context.Context, path string) error

// Config configures a Watcher.
type Config struct {
	// Paths are the files to watch.
	Paths []string

	// Debounce is how long to wait after the last event before the
	// handler runs. Default: 200ms
	Debounce time.Duration

	Logger *slog.Logger
}

// Watcher watches post files for changes.
type Watcher struct {
	targets  map[string]struct{}
	dirs     []string
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger
}

// New creates a watcher calling handler for each changed file.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &Watcher{
		targets:  make(map[string]struct{}, len(cfg.Paths)),
		debounce: cfg.Debounce,
		handler:  handler,
		logger:   cfg.Logger,
	}

	seenDirs := make(map[string]struct{})
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.targets[abs] = struct{}{}

		// Editors often replace the file on save, so the directory is
		// watched rather than the file itself.
		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Run watches until ctx is done and returns ctx.Err(). Handler errors are
// logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(event.Name)
			if _, ok := w.targets[path]; !ok {
				continue
			}
			pending[path] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)

		case <-timer.C:
			for _, path := range sortedKeys(pending) {
				w.logger.Info("File changed", "path", path)
				if err := w.handler(ctx, path); err != nil {
					w.logger.Error("Failed to process changed file", "path", path, "error", err)
				}
			}
			clear(pending)
		}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
