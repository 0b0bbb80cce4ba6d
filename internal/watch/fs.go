package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FSOption configures WatchFS.
type FSOption func(*fsWatch)

// WithSkip excludes directories, typically the output root, from watching.
func WithSkip(dirs ...string) FSOption {
	return func(w *fsWatch) {
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				w.skip = append(w.skip, abs)
			}
		}
	}
}

// WithLogger sets the logger used for watch errors.
func WithLogger(logger *slog.Logger) FSOption {
	return func(w *fsWatch) {
		if logger != nil {
			w.logger = logger
		}
	}
}

type fsWatch struct {
	watcher *fsnotify.Watcher
	skip    []string
	logger  *slog.Logger
	out     chan<- Event
}

// WatchFS watches dirs (relative to root unless absolute) recursively and
// sends their events to out until ctx is cancelled. Directories created
// later are added as they appear. Hidden directories and node_modules are
// never watched. out is closed on return.
func WatchFS(ctx context.Context, root string, dirs []string, out chan<- Event, opts ...FSOption) error {
	defer close(out)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w := &fsWatch{watcher: watcher, logger: slog.New(slog.DiscardHandler), out: out}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range dirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if err := w.addRecursive(ctx, dir, false); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Debug("watching", "dirs", dirs, "count", len(watcher.WatchList()))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.skipped(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if ignoredDir(filepath.Base(ev.Name)) {
						continue
					}
					if err := w.addRecursive(ctx, ev.Name, true); err != nil {
						w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !w.send(ctx, Event{Path: ev.Name, Op: ev.Op}) {
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// addRecursive watches dir and everything below it. With emit set, files
// already present are reported as created, since they may have been written
// before the directory was watched.
func (w *fsWatch) addRecursive(ctx context.Context, dir string, emit bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p != dir {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if (p != dir && ignoredDir(d.Name())) || w.skipped(p) {
				return filepath.SkipDir
			}
			return w.watcher.Add(p)
		}
		if emit && !w.send(ctx, Event{Path: p, Op: fsnotify.Create}) {
			return ctx.Err()
		}
		return nil
	})
}

func (w *fsWatch) send(ctx context.Context, ev Event) bool {
	select {
	case w.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *fsWatch) skipped(p string) bool {
	for _, s := range w.skip {
		if p == s || strings.HasPrefix(p, s+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func ignoredDir(name string) bool {
	return name == "node_modules" || (strings.HasPrefix(name, ".") && name != ".")
}
