// Package watcher watches index artifact files and triggers hot reloads.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ArtifactWatcher watches a set of on-disk index artifacts (vector index
// files, the sparse index) and invokes a reload callback when one is
// rewritten, e.g. by an ingest run against a live server. Writes are
// debounced per path so a multi-chunk rewrite triggers a single reload.
type ArtifactWatcher struct {
	paths    map[string]struct{}
	onReload func(path string)
	debounce time.Duration

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	started     bool
	done        chan struct{}
	stopOnce    sync.Once
	logger      *zap.Logger
}

// Option configures an ArtifactWatcher.
type Option func(*ArtifactWatcher)

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *ArtifactWatcher) { w.debounce = d }
}

// NewArtifactWatcher creates a watcher for the given artifact paths. onReload
// is called with the artifact path after its writes settle.
func NewArtifactWatcher(paths []string, onReload func(path string), logger *zap.Logger, opts ...Option) *ArtifactWatcher {
	pathSet := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		pathSet[filepath.Clean(p)] = struct{}{}
	}
	w := &ArtifactWatcher{
		paths:       pathSet,
		onReload:    onReload,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The parent directory of each artifact is watched so
// atomic rename-into-place rewrites are observed too. Runs until Stop.
func (w *ArtifactWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dirs := make(map[string]struct{})
	for p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				_ = watcher.Close()
				return err
			}
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return err
		}
	}

	w.watcher = watcher
	w.started = true
	w.logger.Debug("artifact watcher started", zap.Int("artifacts", len(w.paths)))
	go w.run()
	return nil
}

func (w *ArtifactWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("artifact watcher error", zap.Error(err))
			}
		}
	}
}

func (w *ArtifactWatcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if _, ok := w.paths[path]; !ok {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Rename):
		w.logger.Debug("artifact changed", zap.String("op", ev.Op.String()), zap.String("path", path))
		w.debounceReload(path)
	case ev.Op.Has(fsnotify.Remove):
		// A remove is usually half of a rename-into-place; wait for the create.
		w.cancelDebounce(path)
	}
}

func (w *ArtifactWatcher) debounceReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.logger.Info("reloading index artifact", zap.String("path", path))
		if w.onReload != nil {
			w.onReload(path)
		}
	})
}

func (w *ArtifactWatcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Stop stops the watcher and releases resources.
func (w *ArtifactWatcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
