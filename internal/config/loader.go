package config

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"

	"proctord/internal/logging"
)

// Loader watches a configuration file and re-reads it on change.
// Registered callbacks receive each re-read config; cmd/proctord uses
// one to re-apply the logging section without a restart.
type Loader struct {
	path     string
	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the file and caches the result.
func (l *Loader) Load() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// OnChange registers a callback invoked after every successful
// reload.
func (l *Loader) OnChange(f func(*Config)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, f)
	l.mu.Unlock()
}

// Watch starts the fsnotify loop. A reload that fails validation is
// logged and skipped; the previous configuration stays active.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(l.path); err != nil {
		watcher.Close()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	l.watcher = watcher
	l.cancel = cancel

	log := logging.Component("config")
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := l.Load()
				if err != nil {
					log.Warn("config reload failed", "path", l.path, "error", err)
					continue
				}
				log.Info("config reloaded", "path", l.path)
				l.mu.RLock()
				callbacks := append([]func(*Config){}, l.onChange...)
				l.mu.RUnlock()
				for _, f := range callbacks {
					f(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops watching.
func (l *Loader) Close() {
	if l.cancel != nil {
		l.cancel()
	}
}
