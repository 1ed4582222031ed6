package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher drops cached sounds when their files change on disk.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	player  *Player
	watcher *fsnotify.Watcher
	paths   map[string]bool
	dirs    map[string]bool
	done    chan struct{}
	running bool
}

// NewWatcher creates a new audio file watcher.
func NewWatcher(player *Player, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
		player: player,
		paths:  make(map[string]bool),
		dirs:   make(map[string]bool),
	}
}

// Watch adds a sound file to the watch list.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.paths[path] = true
	dir := filepath.Dir(path)
	if w.dirs[dir] {
		return
	}
	w.dirs[dir] = true
	if w.watcher != nil {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
		}
	}
}

// Start begins watching the registered files.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
		}
	}

	w.watcher = fsw
	w.done = make(chan struct{})
	w.running = true

	go w.watch(ctx, fsw, w.done)
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.done)
	_ = w.watcher.Close()
	w.watcher = nil
}

func (w *Watcher) watch(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}

			w.mu.Lock()
			watched := w.paths[event.Name]
			w.mu.Unlock()
			if !watched {
				continue
			}

			w.logger.Debug("sound file changed, invalidating cache", "path", event.Name)
			w.player.InvalidateCache(event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		}
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
