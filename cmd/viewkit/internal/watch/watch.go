// Package watch reports debounced changes to scenario files.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Filter reports whether a changed path is interesting.
type Filter func(path string) bool

// YAMLFilter accepts .yaml and .yml files.
func YAMLFilter(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Watcher batches file system events and hands the changed paths to a
// callback once no new event arrived for the debounce delay.
type Watcher struct {
	fs      *fsnotify.Watcher
	delay   time.Duration
	filters []Filter
	logger  *slog.Logger
}

// New creates a watcher with the given debounce delay.
func New(delay time.Duration, logger *slog.Logger, filters ...Filter) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{fs: fs, delay: delay, filters: filters, logger: logger}, nil
}

// Add watches path, usually a directory. Editors that replace files on save
// break watches on the file itself.
func (w *Watcher) Add(path string) error {
	clean := filepath.Clean(path)
	if slices.Contains(w.fs.WatchList(), clean) {
		return nil
	}
	return w.fs.Add(clean)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run delivers batches of changed paths to fn until ctx is done or the
// watcher is closed. Paths within a batch are sorted and unique.
func (w *Watcher) Run(ctx context.Context, fn func(paths []string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.accept(ev) {
				continue
			}
			w.logger.Debug("file changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			pending[ev.Name] = struct{}{}
			timer.Reset(w.delay)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			fn(paths)
		}
	}
}

func (w *Watcher) accept(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	for _, f := range w.filters {
		if !f(ev.Name) {
			return false
		}
	}
	return true
}
