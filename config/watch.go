package config

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration whenever the .env file changes and
// hands the fresh snapshot to the registered callback. Only settings
// read per-request (page limits, upload cap) pick up changes; the
// database and server wiring keep the config they started with.
type Watcher struct {
	mu      sync.RWMutex
	current *Config
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching the .env file next to the working
// directory. If the file does not exist the watcher is inert and
// Current simply returns the initial config.
func NewWatcher(initial *Config, onReload func(*Config)) (*Watcher, error) {
	w := &Watcher{
		current: initial,
		done:    make(chan struct{}),
	}

	if _, err := os.Stat(".env"); err != nil {
		return w, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(".env"); err != nil {
		fw.Close()
		return nil, err
	}
	w.watcher = fw

	go func() {
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg := Load()
				w.mu.Lock()
				w.current = cfg
				w.mu.Unlock()
				if onReload != nil {
					onReload(cfg)
				}
			case <-fw.Errors:
				// Watch errors are not fatal for a config reloader.
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	close(w.done)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
