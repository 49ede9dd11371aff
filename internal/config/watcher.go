package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the result of each reload. Exactly one of cfg and
// err is non-nil.
type ReloadFunc func(cfg *Config, err error)

// Watcher reloads a configuration file when it changes on disk.
//
// The containing directory is watched rather than the file itself so
// editors that save by rename are still seen.
type Watcher struct {
	mu sync.Mutex

	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onReload ReloadFunc
	timer    *time.Timer

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher starts watching path. onReload is called from the watcher
// goroutine after each debounced change with the result of LoadAll.
func NewWatcher(path string, onReload ReloadFunc) (*Watcher, error) {
	return NewWatcherWithDebounce(path, DefaultDebounce, onReload)
}

// NewWatcherWithDebounce is NewWatcher with an explicit debounce interval.
func NewWatcherWithDebounce(path string, debounce time.Duration, onReload ReloadFunc) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		path:     absPath,
		debounce: debounce,
		onReload: onReload,
		closeCh:  make(chan struct{}),
	}
	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher. Pending reloads are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.deliver(nil, err)
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadAll(w.path)
	if err != nil {
		w.deliver(nil, err)
		return
	}
	w.deliver(cfg, nil)
}

func (w *Watcher) deliver(cfg *Config, err error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed || w.onReload == nil {
		return
	}
	w.onReload(cfg, err)
}
