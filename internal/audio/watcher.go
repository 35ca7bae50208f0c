package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops any state held for a changed file.
type Invalidator interface {
	InvalidateCache(path string)
}

// Watcher watches media directories and invalidates cached clips when a file
// is rewritten, replaced or removed. It never adds clips to the playlist.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	target  Invalidator

	done    chan struct{}
	stopped chan struct{}
	running bool
}

// NewWatcher creates a new media watcher reporting to target.
func NewWatcher(target Invalidator, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		logger:  logger,
		watcher: fw,
		target:  target,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Watch adds a directory to the watch list.
func (w *Watcher) Watch(dir string) error {
	if dir == "" {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("watching media directory", "dir", dir)
	return nil
}

// Start begins delivering change events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.running = true

	go w.watch(ctx)
	return nil
}

// watch is the main watch loop.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stopped)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("media file changed", "path", event.Name, "op", event.Op.String())
				w.target.InvalidateCache(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("media watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

// Stop stops the watcher and releases the underlying inotify handle.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)
	<-w.stopped
	w.logger.Debug("media watcher stopped")
	return w.watcher.Close()
}
