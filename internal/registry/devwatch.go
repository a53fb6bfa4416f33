package registry

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// DevWatcher logs filesystem changes under loaded plugin directories. It
// never triggers a reload itself — SPEC_FULL.md §11 scopes fsnotify's role
// to a development-convenience log line, since the host has no hot-reload
// operation in spec.md.
type DevWatcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	done    chan struct{}
}

// NewDevWatcher returns a watcher, watching no directory yet, that logs
// every event on the directories later passed to Add until Close is
// called. A failure to construct the
// underlying fsnotify watcher is non-fatal to the caller; this is
// dev-convenience only.
func NewDevWatcher(logger *slog.Logger) (*DevWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dw := &DevWatcher{watcher: w, logger: logger, done: make(chan struct{})}
	go dw.run()
	return dw, nil
}

// Add begins watching dir, logging a warning (not an error) on failure
// since the watch is advisory.
func (dw *DevWatcher) Add(dir string) {
	if err := dw.watcher.Add(dir); err != nil {
		dw.logger.Warn("dev watch: failed to watch plugin directory",
			slog.String("dir", dir), slog.String("error", err.Error()))
	}
}

// Remove stops watching dir.
func (dw *DevWatcher) Remove(dir string) {
	dw.watcher.Remove(dir)
}

func (dw *DevWatcher) run() {
	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.logger.Debug("plugin directory changed",
				slog.String("path", event.Name), slog.String("op", event.Op.String()))
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("dev watch error", slog.String("error", err.Error()))
		case <-dw.done:
			return
		}
	}
}

// Close stops the watcher.
func (dw *DevWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
